package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/suar-net/form-relay/internal/model"
	"github.com/suar-net/form-relay/internal/repository"
)

type attemptService struct {
	repo repository.IAttemptRepository
}

func NewAttemptService(repo repository.IAttemptRepository) IAttemptService {
	return &attemptService{repo: repo}
}

func (s *attemptService) Record(ctx context.Context, attempt *model.RelayAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.ReceivedAt.IsZero() {
		attempt.ReceivedAt = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record relay attempt: %w", err)
	}
	return nil
}

func (s *attemptService) List(ctx context.Context, query *model.DTOAttemptQuery) (*model.DTOAttemptList, error) {
	attempts, err := s.repo.List(ctx, repository.AttemptFilter{
		Outcome: model.AttemptOutcome(query.Outcome),
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list relay attempts: %w", err)
	}
	if attempts == nil {
		attempts = []*model.RelayAttempt{}
	}

	return &model.DTOAttemptList{
		Attempts: attempts,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}, nil
}
