package biometric

import (
	"FaceGate/internal/entity"
	"math"
)

const (
	optimalBrightnessLow  = 0.35
	optimalBrightnessHigh = 0.65

	// SharpnessNorm is the Laplacian variance treated as fully sharp.
	SharpnessNorm = 500.0

	MinFaceAreaRatio = 0.05
	MaxFaceAreaRatio = 0.60
	CenterTolerance  = 0.20

	frontalMaxDegrees = 10.0
	slightMaxDegrees  = 25.0
	maxPoseDegrees    = 45.0
	// neutralPitchRatio is where the nose tip sits between the eye line and the
	// mouth line on a level head.
	neutralPitchRatio = 0.55

	weightLighting     = 0.25
	weightSharpness    = 0.25
	weightAngle        = 0.25
	weightSize         = 0.075
	weightPosition     = 0.075
	weightEyes         = 0.05
	weightCompleteness = 0.05
)

// QualityAssessor scores a single frame. It keeps no state between calls.
type QualityAssessor struct{}

func NewQualityAssessor() *QualityAssessor {
	return &QualityAssessor{}
}

// Assess never fails: any problem with the frame yields the poorest result.
func (q *QualityAssessor) Assess(frame entity.Frame, region *entity.FaceRegion) (metrics entity.QualityMetrics) {
	defer func() {
		if r := recover(); r != nil {
			metrics = poorQuality()
		}
	}()

	if frame.Image == nil || frame.Image.Bounds().Empty() {
		return poorQuality()
	}

	plane := lumaOf(frame, region)
	if plane == nil {
		return poorQuality()
	}

	scores := entity.QualityScores{
		Lighting:  lightingScore(plane),
		Sharpness: sharpnessScore(plane),
	}

	var angle entity.AngleVerdict
	scores.Angle, angle = poseScore(region)

	var size entity.SizeVerdict
	scores.Size, size = sizeScore(frame, region)

	var position entity.PositionVerdict
	scores.Position, position = positionScore(frame, region)

	eyes := eyesVisible(frame, region)
	complete := faceComplete(frame, region)
	if eyes {
		scores.Eyes = 1
	}
	if complete {
		scores.Completeness = 1
	}

	composite := weightLighting*scores.Lighting +
		weightSharpness*scores.Sharpness +
		weightAngle*scores.Angle +
		weightSize*scores.Size +
		weightPosition*scores.Position +
		weightEyes*scores.Eyes +
		weightCompleteness*scores.Completeness

	return entity.QualityMetrics{
		Score:        clamp01(composite),
		Lighting:     gradeFor(scores.Lighting),
		Angle:        angle,
		Sharpness:    gradeFor(scores.Sharpness),
		Size:         size,
		Position:     position,
		EyesVisible:  eyes,
		FaceComplete: complete,
		Confidence:   regionConfidence(region),
		Scores:       scores,
	}
}

func poorQuality() entity.QualityMetrics {
	return entity.QualityMetrics{
		Lighting:  entity.GradePoor,
		Angle:     entity.AngleExtreme,
		Sharpness: entity.GradePoor,
		Size:      entity.SizeTooSmall,
		Position:  entity.PositionOffCenter,
	}
}

func gradeFor(score float64) entity.Grade {
	switch {
	case score >= 0.85:
		return entity.GradeExcellent
	case score >= 0.65:
		return entity.GradeGood
	case score >= 0.40:
		return entity.GradeFair
	default:
		return entity.GradePoor
	}
}

// lightingScore penalises under and over exposure and rewards visible contrast.
func lightingScore(plane *lumaPlane) float64 {
	mean, std := plane.meanStd()
	brightness := mean / 255.0

	var brightnessScore float64
	switch {
	case brightness < optimalBrightnessLow:
		brightnessScore = brightness / optimalBrightnessLow
	case brightness > optimalBrightnessHigh:
		brightnessScore = (1.0 - brightness) / (1.0 - optimalBrightnessHigh)
	default:
		brightnessScore = 1.0
	}

	contrastScore := math.Min(std/255.0*3, 1.0)
	return clamp01(0.6*brightnessScore + 0.4*contrastScore)
}

func sharpnessScore(plane *lumaPlane) float64 {
	return clamp01(plane.laplacianVariance() / SharpnessNorm)
}

// poseScore estimates yaw and pitch from landmark symmetry.
func poseScore(region *entity.FaceRegion) (float64, entity.AngleVerdict) {
	if region == nil || region.Landmarks == nil {
		return 0.5, entity.AngleSlight
	}
	lm := region.Landmarks
	if lm.LeftEye == nil || lm.RightEye == nil || lm.Nose == nil {
		return 0.5, entity.AngleSlight
	}

	eyeMid := entity.Point{X: (lm.LeftEye.X + lm.RightEye.X) / 2, Y: (lm.LeftEye.Y + lm.RightEye.Y) / 2}
	interEye := math.Hypot(lm.RightEye.X-lm.LeftEye.X, lm.RightEye.Y-lm.LeftEye.Y)
	if interEye < 1e-6 {
		return 0.5, entity.AngleSlight
	}

	yaw := math.Min(math.Abs(lm.Nose.X-eyeMid.X)/interEye*90, 90)

	var pitch float64
	if lm.MouthLeft != nil && lm.MouthRight != nil {
		mouthY := (lm.MouthLeft.Y + lm.MouthRight.Y) / 2
		span := mouthY - eyeMid.Y
		if span > 1e-6 {
			ratio := (lm.Nose.Y - eyeMid.Y) / span
			pitch = math.Min(math.Abs(ratio-neutralPitchRatio)*90, 90)
		}
	}

	deviation := math.Max(yaw, pitch)
	score := clamp01(1 - deviation/maxPoseDegrees)

	switch {
	case deviation < frontalMaxDegrees:
		return score, entity.AngleFront
	case deviation < slightMaxDegrees:
		return score, entity.AngleSlight
	default:
		return score, entity.AngleExtreme
	}
}

func sizeScore(frame entity.Frame, region *entity.FaceRegion) (float64, entity.SizeVerdict) {
	frameArea := float64(frame.Width * frame.Height)
	if region == nil || frameArea <= 0 {
		return 0, entity.SizeTooSmall
	}

	ratio := float64(region.Box.Area()) / frameArea
	switch {
	case ratio < MinFaceAreaRatio:
		return clamp01(ratio / MinFaceAreaRatio), entity.SizeTooSmall
	case ratio > MaxFaceAreaRatio:
		return clamp01(1 - (ratio-MaxFaceAreaRatio)/(1-MaxFaceAreaRatio)), entity.SizeTooLarge
	default:
		return 1, entity.SizeOptimal
	}
}

func positionScore(frame entity.Frame, region *entity.FaceRegion) (float64, entity.PositionVerdict) {
	if region == nil || frame.Width <= 0 || frame.Height <= 0 || region.Box.Area() == 0 {
		return 0, entity.PositionOffCenter
	}

	box := region.Box
	cx := float64(box.X) + float64(box.Width)/2
	cy := float64(box.Y) + float64(box.Height)/2
	dx := math.Abs(cx-float64(frame.Width)/2) / float64(frame.Width)
	dy := math.Abs(cy-float64(frame.Height)/2) / float64(frame.Height)

	score := clamp01(1 - math.Max(dx, dy)/0.5)
	if dx <= CenterTolerance && dy <= CenterTolerance {
		return score, entity.PositionCentered
	}
	return score, entity.PositionOffCenter
}

func insideFrame(frame entity.Frame, p *entity.Point) bool {
	return p != nil && p.X >= 0 && p.Y >= 0 && p.X <= float64(frame.Width) && p.Y <= float64(frame.Height)
}

func eyesVisible(frame entity.Frame, region *entity.FaceRegion) bool {
	if region == nil || region.Landmarks == nil {
		return false
	}
	return insideFrame(frame, region.Landmarks.LeftEye) && insideFrame(frame, region.Landmarks.RightEye)
}

func faceComplete(frame entity.Frame, region *entity.FaceRegion) bool {
	if region == nil || region.Landmarks == nil {
		return false
	}
	for _, p := range region.Landmarks.Points() {
		if !insideFrame(frame, p) {
			return false
		}
	}
	box := region.Box
	return box.Area() > 0 && box.X >= 0 && box.Y >= 0 &&
		box.X+box.Width <= frame.Width && box.Y+box.Height <= frame.Height
}

func regionConfidence(region *entity.FaceRegion) float64 {
	if region == nil {
		return 0
	}
	if region.Confidence > 0 {
		return clamp01(region.Confidence)
	}
	present := 0
	points := region.Landmarks.Points()
	for _, p := range points {
		if p != nil {
			present++
		}
	}
	return float64(present) / float64(len(points))
}
