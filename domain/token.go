package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessCreateToken = "token created successfully"
	MessageFailedCreateToken  = "failed to create token"

	ErrAPITokenNotFound = errors.New("api token not found")
	ErrAPITokenExpired  = errors.New("api token expired")
)

type (
	CreateTokenRequest struct {
		// DaysValid bounds the token lifetime. Absent means non-expiring.
		DaysValid *int `json:"days_valid" validate:"omitempty,min=1"`
	}

	CreateTokenResponse struct {
		Token     string     `json:"token"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
)
