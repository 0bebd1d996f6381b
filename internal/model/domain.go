package model

import (
	"time"

	"github.com/google/uuid"
)

type AttemptOutcome string

const (
	OutcomeRelayed     AttemptOutcome = "relayed"
	OutcomeConfigError AttemptOutcome = "config_error"
	OutcomeRelayError  AttemptOutcome = "relay_error"
)

// RelayAttempt is the ledger record of one forwarded submission. The
// submission body and the endpoint URL are never stored.
type RelayAttempt struct {
	ID               uuid.UUID      `json:"id"`
	RequestID        string         `json:"request_id"`
	ReceivedAt       time.Time      `json:"received_at"`
	DurationMs       int64          `json:"duration_ms"`
	Outcome          AttemptOutcome `json:"outcome"`
	DownstreamStatus *int           `json:"downstream_status"`
	PayloadSize      int            `json:"payload_size"`
	Error            *string        `json:"error"`
}
