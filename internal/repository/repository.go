package repository

import (
	"context"
	"database/sql"

	"github.com/suar-net/form-relay/internal/model"
)

// AttemptFilter narrows a ledger listing. A zero Outcome matches everything.
type AttemptFilter struct {
	Outcome model.AttemptOutcome
	Limit   int
	Offset  int
}

type IAttemptRepository interface {
	Create(ctx context.Context, attempt *model.RelayAttempt) error
	List(ctx context.Context, filter AttemptFilter) ([]*model.RelayAttempt, error)
}

type IRepository interface {
	Attempt() IAttemptRepository
}

type Repository struct {
	attempt IAttemptRepository
}

// NewRepository wires the Postgres-backed repositories. A nil db yields the
// no-op ledger used when DATABASE_URL is unset.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return &Repository{attempt: NopAttemptRepository{}}
	}
	return &Repository{
		attempt: NewAttemptRepository(db),
	}
}

func (r *Repository) Attempt() IAttemptRepository {
	return r.attempt
}

// NopAttemptRepository discards every attempt.
type NopAttemptRepository struct{}

func (NopAttemptRepository) Create(context.Context, *model.RelayAttempt) error { return nil }

func (NopAttemptRepository) List(context.Context, AttemptFilter) ([]*model.RelayAttempt, error) {
	return []*model.RelayAttempt{}, nil
}
