package model

import (
	"github.com/golang-jwt/jwt/v5"
)

type DTOLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type DTOLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// DTOAttemptQuery is decoded from the query string of GET /api/v1/attempts.
type DTOAttemptQuery struct {
	Limit   int    `validate:"gte=1,lte=200"`
	Offset  int    `validate:"gte=0"`
	Outcome string `validate:"omitempty,oneof=relayed config_error relay_error"`
}

type DTOAttemptList struct {
	Attempts []*RelayAttempt `json:"attempts"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}
