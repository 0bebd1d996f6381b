package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/suar-net/form-relay/internal/logging"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db              Pinger
	relayConfigured bool
	logger          zerolog.Logger
}

// NewHealthHandler builds the health endpoint. db may be nil when the
// attempt ledger is disabled.
func NewHealthHandler(db Pinger, relayConfigured bool, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:              db,
		relayConfigured: relayConfigured,
		logger:          logger,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ledger := "disabled"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			logger := logging.FromRequest(r, h.logger)
			logger.Error().Err(err).Msg("health check failed: database connection error")
			respondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		ledger = "enabled"
	}

	respondWithJson(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"relay_configured": h.relayConfigured,
		"ledger":           ledger,
	})
}
