package entity

import "time"

type AttendanceRecord struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	ClockInAt          time.Time  `json:"clock_in_at"`
	ClockOutAt         *time.Time `json:"clock_out_at,omitempty"`
	ClockInSimilarity  float64    `json:"clock_in_similarity"`
	ClockOutSimilarity *float64   `json:"clock_out_similarity,omitempty"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	DistanceMeters     *float64   `json:"distance_meters,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r AttendanceRecord) Open() bool {
	return r.ClockOutAt == nil
}
