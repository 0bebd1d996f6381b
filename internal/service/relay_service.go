package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/suar-net/form-relay/internal/config"
	"github.com/suar-net/form-relay/internal/metrics"
	"github.com/suar-net/form-relay/internal/model"
)

const (
	maxResponseBodySize = 10 * 1024 * 1024 // 10 MB
	defaultRelayTimeout = 15 * time.Second

	timestampField = "timestamp"
	// Millisecond UTC ISO-8601, the format the order form already sends.
	isoTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// RelayService forwards form submissions to the configured spreadsheet
// script endpoint. It holds no per-request state and is safe for concurrent use.
type RelayService struct {
	httpClient   *http.Client
	endpoint     string
	timeout      time.Duration
	addTimestamp bool
	now          func() time.Time
	metrics      *metrics.Metrics
}

type RelayOption func(*RelayService)

// WithHTTPClient replaces the outbound client, mainly for tests.
func WithHTTPClient(c *http.Client) RelayOption {
	return func(s *RelayService) {
		s.httpClient = c
	}
}

// WithClock sets the time source used for the timestamp field.
func WithClock(now func() time.Time) RelayOption {
	return func(s *RelayService) {
		s.now = now
	}
}

func NewRelayService(cfg config.RelayConfig, m *metrics.Metrics, opts ...RelayOption) *RelayService {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRelayTimeout
	}

	s := &RelayService{
		httpClient:   &http.Client{Transport: transport},
		endpoint:     cfg.EndpointURL,
		timeout:      timeout,
		addTimestamp: cfg.AddTimestamp,
		now:          time.Now,
		metrics:      m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether a destination URL is set.
func (s *RelayService) Configured() bool {
	return s.endpoint != ""
}

// Relay sends sub to the downstream endpoint exactly once. The downstream
// status is returned as-is; only transport failures produce an error.
func (s *RelayService) Relay(ctx context.Context, sub model.Submission) (*model.RelayResult, error) {
	if s.endpoint == "" {
		return nil, ErrNotConfigured
	}

	body, err := s.encode(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.Execute(ctx, body)
}

func (s *RelayService) encode(sub model.Submission) ([]byte, error) {
	if sub == nil {
		sub = model.Submission{}
	}

	if s.addTimestamp {
		if _, ok := sub[timestampField]; !ok {
			ts, err := json.Marshal(s.now().UTC().Format(isoTimestampLayout))
			if err != nil {
				return nil, err
			}
			stamped := make(model.Submission, len(sub)+1)
			maps.Copy(stamped, sub)
			stamped[timestampField] = ts
			sub = stamped
		}
	}

	return json.Marshal(sub)
}

func (s *RelayService) Execute(ctx context.Context, body []byte) (*model.RelayResult, error) {
	startTime := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrRelayFailed, stripURL(err))
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := s.httpClient.Do(httpRequest)
	if err != nil {
		cause := stripURL(err)
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, cause)
		}
		return nil, fmt.Errorf("%w: %w", ErrRelayFailed, cause)
	}
	defer httpResponse.Body.Close()

	text, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseBodySize))
	duration := time.Since(startTime)
	if err != nil {
		cause := stripURL(err)
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: reading response: %w", ErrRequestTimeout, cause)
		}
		return nil, fmt.Errorf("%w: reading response: %w", ErrRelayFailed, cause)
	}

	payload, isJSON := normalizePayload(text)
	s.metrics.ObserveDownstream(httpResponse.StatusCode, duration, isJSON)

	return &model.RelayResult{
		StatusCode: httpResponse.StatusCode,
		Payload:    payload,
		Wrapped:    !isJSON,
		Duration:   duration,
	}, nil
}

// normalizePayload returns text unchanged when it is a JSON document and
// otherwise wraps it as {"message": text}.
func normalizePayload(text []byte) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed), true
	}

	wrapped, _ := json.Marshal(map[string]string{"message": string(text)})
	return wrapped, false
}

// stripURL drops the *url.Error wrapper, whose message embeds the endpoint
// URL. The script URL is a credential and must not reach clients or logs.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
