package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/suar-net/form-relay/internal/config"
	"github.com/suar-net/form-relay/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "form-relay"

// authService authenticates the single operator account defined in
// configuration. There is no user table.
type authService struct {
	cfg config.AdminConfig
	now func() time.Time
}

func NewAuthService(cfg config.AdminConfig) IAuthService {
	return &authService{
		cfg: cfg,
		now: time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req *model.DTOLoginRequest) (*model.DTOLoginResponse, error) {
	emailMatch := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(req.Email)),
		[]byte(strings.ToLower(s.cfg.Email)),
	) == 1

	// Always run bcrypt so a wrong email costs the same as a wrong password.
	err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
	if err != nil || !emailMatch {
		return nil, ErrInvalidCredentials
	}

	issuedAt := s.now()
	claims := &model.Claims{
		Email: s.cfg.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.cfg.Email,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &model.DTOLoginResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.TokenTTL.Seconds()),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.Claims, error) {
	claims := &model.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// HashPassword produces the value expected in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hashed), nil
}
