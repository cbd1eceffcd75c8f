package config

import (
	"FaceGate/pkg/biometric"
	"os"
	"strconv"
	"time"
)

// VerificationConfig gathers the tunables of the capture pipeline and the
// attendance geofence. Every field can be overridden from the environment.
type VerificationConfig struct {
	Biometric biometric.Config

	AttemptLockTTL        time.Duration
	ReferenceCacheTTL     time.Duration
	AuditTimeout          time.Duration
	RequestTimeout        time.Duration
	TrustClientDescriptor bool
	StoreSnapshots        bool

	AutoDetectInterval    time.Duration
	AutoDetectMaxAttempts int

	OfficeLatitude     float64
	OfficeLongitude    float64
	OfficeRadiusMeters float64
	GeofenceEnabled    bool
}

func LoadVerificationConfig() VerificationConfig {
	lat, latSet := getenvFloatSet("OFFICE_LATITUDE")
	lng, lngSet := getenvFloatSet("OFFICE_LONGITUDE")

	return VerificationConfig{
		Biometric: biometric.Config{
			MatchThreshold:    getenvFloat("FACE_MATCH_THRESHOLD", biometric.DefaultMatchThreshold),
			MinCaptureQuality: getenvFloat("FACE_MIN_CAPTURE_QUALITY", biometric.DefaultMinCaptureQuality),
			MaxDistance:       getenvFloat("FACE_MAX_DISTANCE", biometric.DefaultMaxDistance),
			FrameTimeout:      getenvDuration("FACE_FRAME_TIMEOUT", biometric.DefaultFrameTimeout),
			EmbedTimeout:      getenvDuration("FACE_EMBED_TIMEOUT", biometric.DefaultEmbedTimeout),
			ReferenceTimeout:  getenvDuration("FACE_REFERENCE_TIMEOUT", biometric.DefaultReferenceTimeout),
			LivenessTimeout:   getenvDuration("FACE_LIVENESS_TIMEOUT", biometric.DefaultLivenessTimeout),
			FramePollInterval: getenvDuration("FACE_FRAME_POLL_INTERVAL", biometric.DefaultFramePollInterval),
			MaxFrameAttempts:  getenvInt("FACE_MAX_FRAME_ATTEMPTS", biometric.DefaultMaxFrameAttempts),
			LivenessFrames:    getenvInt("FACE_LIVENESS_FRAMES", biometric.DefaultLivenessFrames),
		},
		AttemptLockTTL:        getenvDuration("FACE_ATTEMPT_LOCK_TTL", 30*time.Second),
		ReferenceCacheTTL:     getenvDuration("FACE_REFERENCE_CACHE_TTL", time.Hour),
		AuditTimeout:          getenvDuration("FACE_AUDIT_TIMEOUT", 2*time.Second),
		RequestTimeout:        getenvDuration("FACE_REQUEST_TIMEOUT", 20*time.Second),
		TrustClientDescriptor: getenvBool("FACE_TRUST_CLIENT_DESCRIPTOR", false),
		StoreSnapshots:        getenvBool("FACE_STORE_SNAPSHOTS", true),
		AutoDetectInterval:    getenvDuration("FACE_AUTODETECT_INTERVAL", biometric.DefaultAutoDetectInterval),
		AutoDetectMaxAttempts: getenvInt("FACE_AUTODETECT_MAX_ATTEMPTS", biometric.DefaultAutoDetectMaxAttempts),
		OfficeLatitude:        lat,
		OfficeLongitude:       lng,
		OfficeRadiusMeters:    getenvFloat("OFFICE_RADIUS_METERS", 100),
		GeofenceEnabled:       latSet && lngSet,
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if parsed, ok := getenvFloatSet(key); ok {
		return parsed
	}
	return fallback
}

func getenvFloatSet(key string) (float64, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
