package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/suar-net/form-relay/internal/logging"
	"github.com/suar-net/form-relay/internal/model"
	"github.com/suar-net/form-relay/internal/service"
)

type AuthHandler struct {
	authService service.IAuthService
	logger      zerolog.Logger
}

func NewAuthHandler(s service.IAuthService, l zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: s,
		logger:      l,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.DTOLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, ValidationError(err))
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, err.Error())
		} else {
			logger := logging.FromRequest(r, h.logger)
			logger.Error().Err(err).Msg("error logging in admin")
			respondWithError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	respondWithJson(w, http.StatusOK, resp)
}
