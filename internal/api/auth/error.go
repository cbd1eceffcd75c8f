package auth

import (
	"FaceGate/pkg/response"
	"net/http"
)

var (
	ErrUserNotFound    = response.NewError(http.StatusNotFound, "user not found")
	ErrFaceNotVerified = response.NewCodedError(http.StatusUnauthorized, "FACE_NOT_VERIFIED", "face verification failed")
)
