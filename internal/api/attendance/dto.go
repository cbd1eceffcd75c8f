package attendance

import (
	"FaceGate/internal/api/verification"
	"FaceGate/internal/entity"
)

type ClockRequest struct {
	Frames     []string  `json:"frames" validate:"required,min=1,max=5,dive,required"`
	Descriptor []float64 `json:"descriptor" validate:"omitempty"`
	Latitude   *float64  `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64  `json:"longitude" validate:"omitempty,longitude"`
}

type ClockInput struct {
	UserID     string
	Frames     [][]byte
	Descriptor []float64
	Latitude   *float64
	Longitude  *float64
}

// ClockResult always carries the verification outcome; Record is set only
// when the face matched and the record was written.
type ClockResult struct {
	Record         *entity.AttendanceRecord
	Outcome        entity.VerificationOutcome
	DistanceMeters *float64
}

type ClockResponse struct {
	Recorded       bool                        `json:"recorded"`
	Record         *entity.AttendanceRecord    `json:"record,omitempty"`
	DistanceMeters *float64                    `json:"distance_meters,omitempty"`
	Verification   verification.VerifyResponse `json:"verification"`
}

func NewClockResponse(result ClockResult) ClockResponse {
	return ClockResponse{
		Recorded:       result.Record != nil,
		Record:         result.Record,
		DistanceMeters: result.DistanceMeters,
		Verification:   verification.NewVerifyResponse(result.Outcome),
	}
}

type HistoryResponse struct {
	Records []entity.AttendanceRecord `json:"records"`
	Open    *entity.AttendanceRecord  `json:"open,omitempty"`
}
