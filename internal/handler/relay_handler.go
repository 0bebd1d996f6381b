package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/suar-net/form-relay/internal/logging"
	"github.com/suar-net/form-relay/internal/metrics"
	"github.com/suar-net/form-relay/internal/model"
	"github.com/suar-net/form-relay/internal/service"
)

const (
	maxSubmissionSize = 1 << 20 // 1 MB
	recordTimeout     = 2 * time.Second

	relayFailedMessage = "Failed to submit form"
)

// FormRelay forwards a submission downstream and reports what came back.
type FormRelay interface {
	Relay(ctx context.Context, sub model.Submission) (*model.RelayResult, error)
}

// AttemptRecorder stores the outcome of a relayed submission.
type AttemptRecorder interface {
	Record(ctx context.Context, attempt *model.RelayAttempt) error
}

type RelayHandler struct {
	relay    FormRelay
	recorder AttemptRecorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewRelayHandler(relay FormRelay, recorder AttemptRecorder, m *metrics.Metrics, l zerolog.Logger) *RelayHandler {
	return &RelayHandler{
		relay:    relay,
		recorder: recorder,
		metrics:  m,
		logger:   l,
	}
}

func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		h.metrics.ObserveSubmission(metrics.OutcomeMethodNotAllowed)
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	logger := logging.FromRequest(r, h.logger)

	sub, size, err := decodeSubmission(w, r)
	if err != nil {
		logger.Debug().Err(err).Msg("rejected submission body")
		h.metrics.ObserveSubmission(metrics.OutcomeBadRequest)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	attempt := &model.RelayAttempt{
		RequestID:   middleware.GetReqID(r.Context()),
		ReceivedAt:  time.Now().UTC(),
		PayloadSize: size,
	}

	result, err := h.relay.Relay(r.Context(), sub)
	attempt.DurationMs = time.Since(attempt.ReceivedAt).Milliseconds()
	if err != nil {
		msg := err.Error()
		attempt.Error = &msg

		if errors.Is(err, service.ErrNotConfigured) {
			attempt.Outcome = model.OutcomeConfigError
			h.metrics.ObserveSubmission(metrics.OutcomeConfigError)
			logger.Error().Msg("form endpoint URL is not configured, submission dropped")
		} else {
			attempt.Outcome = model.OutcomeRelayError
			h.metrics.ObserveSubmission(metrics.OutcomeRelayError)
			logger.Error().Err(err).Bool("timeout", errors.Is(err, service.ErrRequestTimeout)).Msg("failed to relay submission")
		}

		respondWithJson(w, http.StatusInternalServerError, model.DTOErrorResponse{
			Error:   relayFailedMessage,
			Details: msg,
		})
		h.record(r.Context(), logger, attempt)
		return
	}

	status := result.StatusCode
	attempt.Outcome = model.OutcomeRelayed
	attempt.DownstreamStatus = &status
	h.metrics.ObserveSubmission(metrics.OutcomeRelayed)
	logger.Info().
		Int("downstream_status", status).
		Bool("downstream_json", !result.Wrapped).
		Dur("downstream_duration", result.Duration).
		Msg("submission relayed")

	if !bodyAllowed(status) {
		logger.Warn().Int("downstream_status", status).Msg("downstream status forbids a body, payload dropped")
		w.WriteHeader(status)
		h.record(r.Context(), logger, attempt)
		return
	}

	respondWithJson(w, status, result.Payload)
	h.record(r.Context(), logger, attempt)
}

// bodyAllowed reports whether a response with this status may carry a body.
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// record writes the ledger entry once the response is produced. A failure
// here is logged and never alters what the client received.
func (h *RelayHandler) record(ctx context.Context, logger zerolog.Logger, attempt *model.RelayAttempt) {
	if h.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := h.recorder.Record(ctx, attempt); err != nil {
		logger.Warn().Err(err).Msg("failed to record relay attempt")
	}
}

// decodeSubmission reads the request body as a JSON object. An empty body is
// an empty submission.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (model.Submission, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmissionSize))
	if err != nil {
		return nil, 0, err
	}

	sub := model.Submission{}
	if len(bytes.TrimSpace(body)) == 0 {
		return sub, 0, nil
	}
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, len(body), err
	}
	if sub == nil {
		// literal null
		sub = model.Submission{}
	}
	return sub, len(body), nil
}
