package attendanceService

import (
	"FaceGate/internal/api/attendance"
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
	contextPkg "FaceGate/pkg/context"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 200
)

func (s *attendanceService) ClockIn(ctx context.Context, input attendance.ClockInput) (attendance.ClockResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	distance, err := s.geofence.Check(input.Latitude, input.Longitude)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"error":      err.Error(),
		}).Warn("Clock-in rejected by geofence")
		return attendance.ClockResult{DistanceMeters: distance}, err
	}

	repo, err := s.attendanceRepository.NewClient(false)
	if err != nil {
		return attendance.ClockResult{}, err
	}

	if _, err := repo.Attendance.GetOpenRecord(ctx, input.UserID); err == nil {
		return attendance.ClockResult{}, attendance.ErrAlreadyClockedIn
	} else if !errors.Is(err, attendance.ErrRecordNotFound) {
		return attendance.ClockResult{}, err
	}

	outcome, err := s.verificationService.Verify(ctx, verification.VerifyInput{
		UserID:     input.UserID,
		Purpose:    entity.PurposeClockIn,
		Frames:     input.Frames,
		Descriptor: input.Descriptor,
	})
	if err != nil {
		return attendance.ClockResult{}, err
	}

	result := attendance.ClockResult{Outcome: outcome, DistanceMeters: distance}
	if !outcome.Verified {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"reason":     outcome.Reason,
		}).Info("Clock-in not recorded, face not verified")
		return result, nil
	}

	now := s.now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		return result, err
	}

	record := entity.AttendanceRecord{
		ID:                id,
		UserID:            input.UserID,
		ClockInAt:         now,
		ClockInSimilarity: similarityOf(outcome),
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
		DistanceMeters:    distance,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := repo.Attendance.CreateRecord(ctx, record); err != nil {
		return result, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    input.UserID,
		"record_id":  record.ID,
	}).Info("Clock-in recorded")

	result.Record = &record
	return result, nil
}

func (s *attendanceService) ClockOut(ctx context.Context, input attendance.ClockInput) (attendance.ClockResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	distance, err := s.geofence.Check(input.Latitude, input.Longitude)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"error":      err.Error(),
		}).Warn("Clock-out rejected by geofence")
		return attendance.ClockResult{DistanceMeters: distance}, err
	}

	repo, err := s.attendanceRepository.NewClient(false)
	if err != nil {
		return attendance.ClockResult{}, err
	}

	open, err := repo.Attendance.GetOpenRecord(ctx, input.UserID)
	if errors.Is(err, attendance.ErrRecordNotFound) {
		return attendance.ClockResult{}, attendance.ErrNotClockedIn
	}
	if err != nil {
		return attendance.ClockResult{}, err
	}

	outcome, err := s.verificationService.Verify(ctx, verification.VerifyInput{
		UserID:     input.UserID,
		Purpose:    entity.PurposeClockOut,
		Frames:     input.Frames,
		Descriptor: input.Descriptor,
	})
	if err != nil {
		return attendance.ClockResult{}, err
	}

	result := attendance.ClockResult{Outcome: outcome, DistanceMeters: distance}
	if !outcome.Verified {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    input.UserID,
			"reason":     outcome.Reason,
		}).Info("Clock-out not recorded, face not verified")
		return result, nil
	}

	now := s.now()
	similarity := similarityOf(outcome)
	if err := repo.Attendance.CloseRecord(ctx, open.ID, now, similarity); err != nil {
		return result, err
	}

	open.ClockOutAt = &now
	open.ClockOutSimilarity = &similarity
	open.UpdatedAt = now

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    input.UserID,
		"record_id":  open.ID,
	}).Info("Clock-out recorded")

	result.Record = &open
	return result, nil
}

func (s *attendanceService) GetHistory(ctx context.Context, userID string, limit int) (attendance.HistoryResponse, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	repo, err := s.attendanceRepository.NewClient(false)
	if err != nil {
		return attendance.HistoryResponse{}, err
	}

	records, err := repo.Attendance.GetRecordsByUserID(ctx, userID, limit)
	if err != nil {
		return attendance.HistoryResponse{}, err
	}

	res := attendance.HistoryResponse{Records: records}
	for i := range records {
		if records[i].Open() {
			open := records[i]
			res.Open = &open
			break
		}
	}

	return res, nil
}
