package auth

import (
	"FaceGate/internal/api/verification"
	"time"
)

type FaceLoginRequest struct {
	Email      string    `json:"email" validate:"required,email"`
	Frames     []string  `json:"frames" validate:"required,min=1,max=5,dive,required"`
	Descriptor []float64 `json:"descriptor" validate:"omitempty"`
}

type FaceLoginInput struct {
	Email      string
	Frames     [][]byte
	Descriptor []float64
}

type LoginUserResponse struct {
	AccessToken  string                      `json:"access_token,omitempty"`
	ExpiresAt    int64                       `json:"expires_at,omitempty"`
	Verification verification.VerifyResponse `json:"verification"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
