package repository

import (
	"context"
	"database/sql"

	"github.com/suar-net/form-relay/internal/model"
)

// attemptRepository is the implementation of IAttemptRepository.
type attemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository is the constructor for attemptRepository.
func NewAttemptRepository(db *sql.DB) IAttemptRepository {
	return &attemptRepository{db: db}
}

// Create inserts a new relay attempt into the ledger.
func (r *attemptRepository) Create(ctx context.Context, attempt *model.RelayAttempt) error {
	query := `
		INSERT INTO relay_attempts (id, request_id, received_at, duration_ms, outcome, downstream_status, payload_size, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.RequestID,
		attempt.ReceivedAt,
		attempt.DurationMs,
		string(attempt.Outcome),
		attempt.DownstreamStatus,
		attempt.PayloadSize,
		attempt.Error,
	)

	return err
}

// List returns attempts newest first.
func (r *attemptRepository) List(ctx context.Context, filter AttemptFilter) ([]*model.RelayAttempt, error) {
	query := `
		SELECT id, request_id, received_at, duration_ms, outcome, downstream_status, payload_size, error
		FROM relay_attempts
		WHERE ($1::text = '' OR outcome = $1::text)
		ORDER BY received_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, string(filter.Outcome), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []*model.RelayAttempt{}
	for rows.Next() {
		var (
			attempt model.RelayAttempt
			outcome string
		)
		if err := rows.Scan(
			&attempt.ID,
			&attempt.RequestID,
			&attempt.ReceivedAt,
			&attempt.DurationMs,
			&outcome,
			&attempt.DownstreamStatus,
			&attempt.PayloadSize,
			&attempt.Error,
		); err != nil {
			return nil, err
		}
		attempt.Outcome = model.AttemptOutcome(outcome)
		attempts = append(attempts, &attempt)
	}

	return attempts, rows.Err()
}
