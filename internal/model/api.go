package model

import (
	"encoding/json"
	"time"
)

// Submission is a form payload as sent by the landing page. Field values are
// kept as raw JSON so numbers such as totalPrice round-trip unchanged.
type Submission map[string]json.RawMessage

// RelayResult is what the downstream endpoint answered, normalized to JSON.
type RelayResult struct {
	StatusCode int
	Payload    json.RawMessage
	// Wrapped is set when the downstream body was not JSON and Payload holds
	// {"message": <text>} instead.
	Wrapped  bool
	Duration time.Duration
}

// DTOErrorResponse is the body returned when a submission cannot be relayed.
type DTOErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
