package biometric

import (
	"FaceGate/internal/entity"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"slices"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxAnalysisWidth bounds the width of the image kept for local heuristics.
const MaxAnalysisWidth = 640

var ErrInvalidFrame = errors.New("invalid frame")

// DecodeFrame decodes a JPEG, PNG or WebP capture. The original bytes are kept
// for the AI service while a downscaled copy is used for local analysis.
func DecodeFrame(data []byte) (entity.Frame, error) {
	if len(data) == 0 {
		return entity.Frame{}, fmt.Errorf("%w: empty payload", ErrInvalidFrame)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return entity.Frame{}, fmt.Errorf("%w: empty image", ErrInvalidFrame)
	}

	analysis := img
	if bounds.Dx() > MaxAnalysisWidth {
		height := bounds.Dy() * MaxAnalysisWidth / bounds.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, MaxAnalysisWidth, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		analysis = dst
	}

	return entity.Frame{
		Data:       data,
		Image:      analysis,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		CapturedAt: time.Now(),
	}, nil
}

// NewFrame wraps an in-memory image without encoded bytes.
func NewFrame(img image.Image) entity.Frame {
	b := img.Bounds()
	return entity.Frame{
		Image:      img,
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: time.Now(),
	}
}

// analysisRect maps a region given in frame coordinates onto the analysis image.
func analysisRect(frame entity.Frame, region *entity.FaceRegion) image.Rectangle {
	b := frame.Image.Bounds()
	if region == nil || region.Box.Area() == 0 {
		return b
	}

	sx, sy := 1.0, 1.0
	if frame.Width > 0 {
		sx = float64(b.Dx()) / float64(frame.Width)
	}
	if frame.Height > 0 {
		sy = float64(b.Dy()) / float64(frame.Height)
	}

	box := region.Box
	r := image.Rect(
		b.Min.X+int(math.Floor(float64(box.X)*sx)),
		b.Min.Y+int(math.Floor(float64(box.Y)*sy)),
		b.Min.X+int(math.Ceil(float64(box.X+box.Width)*sx)),
		b.Min.Y+int(math.Ceil(float64(box.Y+box.Height)*sy)),
	)
	return r.Intersect(b)
}

// lumaPlane is a dense grey-level copy of a rectangle, values in [0,255].
type lumaPlane struct {
	w, h int
	pix  []float64
}

func lumaOf(frame entity.Frame, region *entity.FaceRegion) *lumaPlane {
	if frame.Image == nil {
		return nil
	}
	return newLumaPlane(frame.Image, analysisRect(frame, region))
}

func newLumaPlane(img image.Image, r image.Rectangle) *lumaPlane {
	if r.Empty() {
		return nil
	}

	p := &lumaPlane{w: r.Dx(), h: r.Dy(), pix: make([]float64, r.Dx()*r.Dy())}
	i := 0
	switch src := img.(type) {
	case *image.Gray:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				p.pix[i] = float64(src.GrayAt(x, y).Y)
				i++
			}
		}
	case *image.YCbCr:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				p.pix[i] = float64(src.Y[src.YOffset(x, y)])
				i++
			}
		}
	default:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				cr, cg, cb, _ := img.At(x, y).RGBA()
				p.pix[i] = (0.299*float64(cr) + 0.587*float64(cg) + 0.114*float64(cb)) / 257.0
				i++
			}
		}
	}
	return p
}

func (p *lumaPlane) at(x, y int) float64 {
	return p.pix[y*p.w+x]
}

func (p *lumaPlane) meanStd() (float64, float64) {
	if p == nil || len(p.pix) == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for _, v := range p.pix {
		sum += v
		sumSq += v * v
	}
	n := float64(len(p.pix))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func (p *lumaPlane) laplacian() []float64 {
	if p == nil || p.w < 3 || p.h < 3 {
		return nil
	}
	out := make([]float64, 0, (p.w-2)*(p.h-2))
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			out = append(out, 4*p.at(x, y)-p.at(x-1, y)-p.at(x+1, y)-p.at(x, y-1)-p.at(x, y+1))
		}
	}
	return out
}

func (p *lumaPlane) laplacianVariance() float64 {
	lap := p.laplacian()
	if len(lap) == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range lap {
		sum += v
		sumSq += v * v
	}
	n := float64(len(lap))
	mean := sum / n
	return math.Max(0, sumSq/n-mean*mean)
}

// edgeDensity is the share of pixels whose central-difference gradient exceeds threshold.
func (p *lumaPlane) edgeDensity(threshold float64) float64 {
	if p == nil || p.w < 3 || p.h < 3 {
		return 0
	}
	edges, total := 0, 0
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			gx := p.at(x+1, y) - p.at(x-1, y)
			gy := p.at(x, y+1) - p.at(x, y-1)
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				edges++
			}
			total++
		}
	}
	return float64(edges) / float64(total)
}

// lbpEntropy samples 8-neighbour local binary patterns every step pixels and
// returns the Shannon entropy of the code histogram normalised to [0,1].
// A flat patch yields a single code and scores 0.
func (p *lumaPlane) lbpEntropy(step int) float64 {
	if p == nil || p.w < 3 || p.h < 3 {
		return 0
	}
	if step < 1 {
		step = 1
	}
	offsets := [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}}

	var hist [256]int
	samples := 0
	for y := 1; y < p.h-1; y += step {
		for x := 1; x < p.w-1; x += step {
			center := p.at(x, y)
			var pattern uint8
			for bit, o := range offsets {
				if p.at(x+o[0], y+o[1]) >= center {
					pattern |= 1 << bit
				}
			}
			hist[pattern]++
			samples++
		}
	}
	if samples == 0 {
		return 0
	}

	var entropy float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		prob := float64(c) / float64(samples)
		entropy -= prob * math.Log2(prob)
	}
	return normalize(entropy, 0, 8)
}

func (p *lumaPlane) saturatedFraction(level float64) float64 {
	if p == nil || len(p.pix) == 0 {
		return 0
	}
	n := 0
	for _, v := range p.pix {
		if v >= level {
			n++
		}
	}
	return float64(n) / float64(len(p.pix))
}

// energyConcentration is the share of Laplacian energy held by the strongest 5%
// of responses. Natural faces concentrate energy on a few contours while
// screen moire spreads it evenly.
func (p *lumaPlane) energyConcentration() float64 {
	lap := p.laplacian()
	if len(lap) == 0 {
		return 0
	}
	energy := make([]float64, len(lap))
	var total float64
	for i, v := range lap {
		energy[i] = v * v
		total += energy[i]
	}
	if total == 0 {
		return 0
	}
	slices.Sort(energy)
	cut := int(float64(len(energy)) * 0.95)
	var top float64
	for _, e := range energy[cut:] {
		top += e
	}
	return top / total
}

func meanAbsDiff(a, b *lumaPlane) float64 {
	if a == nil || b == nil {
		return 0
	}
	w, h := min(a.w, b.w), min(a.h, b.h)
	if w == 0 || h == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += math.Abs(a.at(x, y) - b.at(x, y))
		}
	}
	return sum / float64(w*h)
}

func normalize(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp01((value - lo) / (hi - lo))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
