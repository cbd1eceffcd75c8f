package verificationService

import (
	"FaceGate/internal/api/verification"
	verificationRepository "FaceGate/internal/api/verification/repository"
	"FaceGate/internal/entity"
	"FaceGate/pkg/biometric"
	"FaceGate/pkg/redis"
	"FaceGate/pkg/s3"
	"FaceGate/pkg/utils"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IVerificationService interface {
	Verify(ctx context.Context, input verification.VerifyInput) (entity.VerificationOutcome, error)
	Enroll(ctx context.Context, input verification.EnrollInput) (verification.EnrollResponse, error)
	AssessQuality(ctx context.Context, frame []byte) (verification.QualityResponse, error)
	GetReferenceStatus(ctx context.Context, userID string) (verification.ReferenceStatusResponse, error)
	DeleteReference(ctx context.Context, userID string) error
	GetAttempts(ctx context.Context, userID string, limit int) ([]entity.VerificationAttempt, error)
	StreamVerify(ctx context.Context, userID string, frames <-chan []byte, onAttempt func(attempt int, outcome entity.VerificationOutcome)) (entity.VerificationOutcome, error)
}

// Options are the service level knobs layered on top of biometric.Config.
type Options struct {
	AttemptLockTTL        time.Duration
	ReferenceCacheTTL     time.Duration
	AuditTimeout          time.Duration
	TrustClientDescriptor bool
	StoreSnapshots        bool
	AutoDetectInterval    time.Duration
	AutoDetectMaxAttempts int
}

type verificationService struct {
	log                    *logrus.Logger
	verificationRepository verificationRepository.Repository
	redis                  redis.IRedis
	s3                     s3.ItfS3
	utils                  utils.IUtils
	verifier               *biometric.Verifier
	opts                   Options
}

func NewVerificationService(
	log *logrus.Logger,
	vr verificationRepository.Repository,
	redis redis.IRedis,
	s3 s3.ItfS3,
	utils utils.IUtils,
	detector biometric.Detector,
	embedder biometric.Embedder,
	cfg biometric.Config,
	opts Options,
) IVerificationService {
	if opts.AttemptLockTTL <= 0 {
		opts.AttemptLockTTL = 30 * time.Second
	}
	if opts.ReferenceCacheTTL <= 0 {
		opts.ReferenceCacheTTL = time.Hour
	}
	if opts.AuditTimeout <= 0 {
		opts.AuditTimeout = 2 * time.Second
	}

	references := &referenceStore{
		log:        log,
		repository: vr,
		cache:      redis,
		ttl:        opts.ReferenceCacheTTL,
	}

	return &verificationService{
		log:                    log,
		verificationRepository: vr,
		redis:                  redis,
		s3:                     s3,
		utils:                  utils,
		verifier:               biometric.NewVerifier(cfg, detector, embedder, references, log),
		opts:                   opts,
	}
}
