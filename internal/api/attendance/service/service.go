package attendanceService

import (
	"FaceGate/internal/api/attendance"
	attendanceRepository "FaceGate/internal/api/attendance/repository"
	verificationService "FaceGate/internal/api/verification/service"
	"FaceGate/internal/entity"
	"FaceGate/pkg/utils"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IAttendanceService interface {
	ClockIn(ctx context.Context, input attendance.ClockInput) (attendance.ClockResult, error)
	ClockOut(ctx context.Context, input attendance.ClockInput) (attendance.ClockResult, error)
	GetHistory(ctx context.Context, userID string, limit int) (attendance.HistoryResponse, error)
}

type attendanceService struct {
	log                  *logrus.Logger
	attendanceRepository attendanceRepository.Repository
	verificationService  verificationService.IVerificationService
	utils                utils.IUtils
	geofence             attendance.Geofence
	now                  func() time.Time
}

func NewAttendanceService(
	log *logrus.Logger,
	ar attendanceRepository.Repository,
	vs verificationService.IVerificationService,
	utils utils.IUtils,
	geofence attendance.Geofence,
) IAttendanceService {
	return &attendanceService{
		log:                  log,
		attendanceRepository: ar,
		verificationService:  vs,
		utils:                utils,
		geofence:             geofence,
		now:                  time.Now,
	}
}

func similarityOf(outcome entity.VerificationOutcome) float64 {
	if outcome.Similarity == nil {
		return 0
	}
	return *outcome.Similarity
}
