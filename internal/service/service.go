package service

import (
	"context"

	"github.com/suar-net/form-relay/internal/model"
)

type IAuthService interface {
	Login(ctx context.Context, req *model.DTOLoginRequest) (*model.DTOLoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*model.Claims, error)
}

type IAttemptService interface {
	Record(ctx context.Context, attempt *model.RelayAttempt) error
	List(ctx context.Context, query *model.DTOAttemptQuery) (*model.DTOAttemptList, error)
}
