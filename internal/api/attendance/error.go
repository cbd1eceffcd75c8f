package attendance

import "FaceGate/pkg/response"

var (
	ErrLocationRequired = response.NewCodedError(400, "LOCATION_REQUIRED", "latitude and longitude are required")
	ErrOutsideGeofence  = response.NewCodedError(403, "OUTSIDE_GEOFENCE", "you are too far from the office")
	ErrAlreadyClockedIn = response.NewCodedError(409, "ALREADY_CLOCKED_IN", "already clocked in")
	ErrNotClockedIn     = response.NewCodedError(409, "NOT_CLOCKED_IN", "no open clock-in to close")
	ErrRecordNotFound   = response.NewError(404, "attendance record not found")
)
