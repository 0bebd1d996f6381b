package service

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotConfigured  = errors.New("form endpoint URL is not configured")
	ErrRelayFailed    = errors.New("relay failed")
	ErrRequestTimeout = errors.New("request timeout")

	// Admin-related errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
)
