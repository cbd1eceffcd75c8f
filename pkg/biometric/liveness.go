package biometric

import (
	"FaceGate/internal/entity"
)

const (
	DefaultLivenessThreshold = 0.5

	// Mean absolute grey-level change between consecutive frames that a
	// breathing, blinking person produces. Zero motion looks like a photo,
	// large motion like a swapped or hand-held screen.
	motionLow  = 1.5
	motionHigh = 25.0

	edgeGradientThreshold = 30.0
	edgeDensityFull       = 0.25
	lbpStep               = 4
	specularLevel         = 250.0
	specularLimit         = 0.08
)

// LivenessChecker is a best-effort screen against photo and screen replay.
// Its result is advisory and never blocks a verification.
type LivenessChecker struct {
	threshold float64
}

func NewLivenessChecker(threshold float64) *LivenessChecker {
	if threshold <= 0 {
		threshold = DefaultLivenessThreshold
	}
	return &LivenessChecker{threshold: threshold}
}

func (l *LivenessChecker) CheckLiveness(frames []entity.Frame, region *entity.FaceRegion) (result entity.LivenessResult) {
	defer func() {
		if r := recover(); r != nil {
			result = entity.LivenessResult{}
		}
	}()

	planes := make([]*lumaPlane, 0, len(frames))
	for _, f := range frames {
		if p := lumaOf(f, region); p != nil {
			planes = append(planes, p)
		}
	}
	if len(planes) == 0 {
		return entity.LivenessResult{}
	}

	first := planes[0]
	cues := entity.LivenessCues{
		Texture:  clamp01(0.6*first.lbpEntropy(lbpStep) + 0.4*normalize(first.edgeDensity(edgeGradientThreshold), 0, edgeDensityFull)),
		Moire:    normalize(first.energyConcentration(), 0.2, 0.7),
		Specular: 1 - normalize(first.saturatedFraction(specularLevel), 0, specularLimit),
	}

	var confidence float64
	if len(planes) > 1 {
		cues.Motion = motionScore(planes)
		confidence = 0.4*cues.Motion + 0.3*cues.Texture + 0.15*cues.Moire + 0.15*cues.Specular
	} else {
		confidence = 0.5*cues.Texture + 0.25*cues.Moire + 0.25*cues.Specular
	}
	confidence = clamp01(confidence)

	return entity.LivenessResult{
		IsLive:     confidence >= l.threshold,
		Confidence: confidence,
		FrameCount: len(planes),
		Cues:       cues,
	}
}

func motionScore(planes []*lumaPlane) float64 {
	var total float64
	for i := 1; i < len(planes); i++ {
		total += meanAbsDiff(planes[i-1], planes[i])
	}
	diff := total / float64(len(planes)-1)

	switch {
	case diff < motionLow:
		return clamp01(diff / motionLow)
	case diff > motionHigh:
		return clamp01(1 - (diff-motionHigh)/motionHigh)
	default:
		return 1
	}
}
