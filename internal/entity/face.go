package entity

import (
	"image"
	"math"
	"time"
)

// DescriptorSize is the length of every face embedding produced by the AI service.
const DescriptorSize = 128

// FaceDescriptor is a face embedding. Anything that is not exactly
// DescriptorSize finite values is treated as absent.
type FaceDescriptor []float64

func (d FaceDescriptor) Valid() bool {
	if len(d) != DescriptorSize {
		return false
	}
	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (d FaceDescriptor) Clone() FaceDescriptor {
	if d == nil {
		return nil
	}
	out := make(FaceDescriptor, len(d))
	copy(out, d)
	return out
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks holds the 5-point layout returned by the detector. Missing points stay nil.
type Landmarks struct {
	LeftEye    *Point `json:"left_eye,omitempty"`
	RightEye   *Point `json:"right_eye,omitempty"`
	Nose       *Point `json:"nose,omitempty"`
	MouthLeft  *Point `json:"mouth_left,omitempty"`
	MouthRight *Point `json:"mouth_right,omitempty"`
}

func (l *Landmarks) Points() []*Point {
	if l == nil {
		return []*Point{nil, nil, nil, nil, nil}
	}
	return []*Point{l.LeftEye, l.RightEye, l.Nose, l.MouthLeft, l.MouthRight}
}

type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

type FaceRegion struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	Landmarks  *Landmarks  `json:"landmarks,omitempty"`
}

// Frame is one captured camera image. Data keeps the encoded bytes sent to the
// AI service; Image may be a downscaled copy used for local analysis while
// Width and Height stay in the coordinate space of Data.
type Frame struct {
	Data       []byte
	Image      image.Image
	Width      int
	Height     int
	CapturedAt time.Time
}

type Grade string

const (
	GradePoor      Grade = "poor"
	GradeFair      Grade = "fair"
	GradeGood      Grade = "good"
	GradeExcellent Grade = "excellent"
)

type AngleVerdict string

const (
	AngleFront   AngleVerdict = "front"
	AngleSlight  AngleVerdict = "slight"
	AngleExtreme AngleVerdict = "extreme"
)

type SizeVerdict string

const (
	SizeTooSmall SizeVerdict = "too-small"
	SizeOptimal  SizeVerdict = "optimal"
	SizeTooLarge SizeVerdict = "too-large"
)

type PositionVerdict string

const (
	PositionCentered  PositionVerdict = "centered"
	PositionOffCenter PositionVerdict = "off-center"
)

type QualityScores struct {
	Lighting     float64 `json:"lighting"`
	Sharpness    float64 `json:"sharpness"`
	Angle        float64 `json:"angle"`
	Size         float64 `json:"size"`
	Position     float64 `json:"position"`
	Eyes         float64 `json:"eyes"`
	Completeness float64 `json:"completeness"`
}

type QualityMetrics struct {
	Score        float64         `json:"score"`
	Lighting     Grade           `json:"lighting"`
	Angle        AngleVerdict    `json:"angle"`
	Sharpness    Grade           `json:"sharpness"`
	Size         SizeVerdict     `json:"size"`
	Position     PositionVerdict `json:"position"`
	EyesVisible  bool            `json:"eyes_visible"`
	FaceComplete bool            `json:"face_complete"`
	Confidence   float64         `json:"confidence"`
	Scores       QualityScores   `json:"scores"`
}

type LivenessCues struct {
	Motion   float64 `json:"motion"`
	Texture  float64 `json:"texture"`
	Moire    float64 `json:"moire"`
	Specular float64 `json:"specular"`
}

type LivenessResult struct {
	IsLive     bool         `json:"is_live"`
	Confidence float64      `json:"confidence"`
	FrameCount int          `json:"frame_count"`
	Cues       LivenessCues `json:"cues"`
}

type MultiFaceResult struct {
	MultipleFaces  bool         `json:"multiple_faces"`
	Count          int          `json:"count"`
	DetectorFailed bool         `json:"detector_failed,omitempty"`
	Faces          []FaceRegion `json:"-"`
}
