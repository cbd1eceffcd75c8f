package biometric

import "time"

const (
	// DefaultMatchThreshold is the minimum similarity accepted as the same person.
	// It is a usability trade-off and must be recalibrated for a different embedding model.
	DefaultMatchThreshold = 0.55
	// DefaultMinCaptureQuality is the minimum composite quality for a frame to be embedded.
	DefaultMinCaptureQuality = 0.55
	// DefaultMaxDistance maps L2 distance to similarity: distance >= MaxDistance scores 0.
	DefaultMaxDistance = 1.0

	DefaultFrameTimeout      = 3 * time.Second
	DefaultEmbedTimeout      = 5 * time.Second
	DefaultReferenceTimeout  = 3 * time.Second
	DefaultLivenessTimeout   = 1500 * time.Millisecond
	DefaultFramePollInterval = 100 * time.Millisecond
	DefaultMaxFrameAttempts  = 10
	DefaultLivenessFrames    = 3
)

type Config struct {
	MatchThreshold    float64
	MinCaptureQuality float64
	MaxDistance       float64
	FrameTimeout      time.Duration
	EmbedTimeout      time.Duration
	ReferenceTimeout  time.Duration
	LivenessTimeout   time.Duration
	FramePollInterval time.Duration
	MaxFrameAttempts  int
	LivenessFrames    int
}

func DefaultConfig() Config {
	return Config{
		MatchThreshold:    DefaultMatchThreshold,
		MinCaptureQuality: DefaultMinCaptureQuality,
		MaxDistance:       DefaultMaxDistance,
		FrameTimeout:      DefaultFrameTimeout,
		EmbedTimeout:      DefaultEmbedTimeout,
		ReferenceTimeout:  DefaultReferenceTimeout,
		LivenessTimeout:   DefaultLivenessTimeout,
		FramePollInterval: DefaultFramePollInterval,
		MaxFrameAttempts:  DefaultMaxFrameAttempts,
		LivenessFrames:    DefaultLivenessFrames,
	}
}

// withDefaults fills zero values so a partially built Config is always usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MatchThreshold <= 0 {
		c.MatchThreshold = d.MatchThreshold
	}
	if c.MinCaptureQuality <= 0 {
		c.MinCaptureQuality = d.MinCaptureQuality
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = d.MaxDistance
	}
	if c.FrameTimeout <= 0 {
		c.FrameTimeout = d.FrameTimeout
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = d.EmbedTimeout
	}
	if c.ReferenceTimeout <= 0 {
		c.ReferenceTimeout = d.ReferenceTimeout
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = d.LivenessTimeout
	}
	if c.FramePollInterval <= 0 {
		c.FramePollInterval = d.FramePollInterval
	}
	if c.MaxFrameAttempts <= 0 {
		c.MaxFrameAttempts = d.MaxFrameAttempts
	}
	if c.LivenessFrames <= 0 {
		c.LivenessFrames = d.LivenessFrames
	}
	return c
}
