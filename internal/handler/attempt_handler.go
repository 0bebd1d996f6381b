package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/suar-net/form-relay/internal/logging"
	"github.com/suar-net/form-relay/internal/model"
	"github.com/suar-net/form-relay/internal/service"
)

const defaultAttemptLimit = 50

type AttemptHandler struct {
	attemptService service.IAttemptService
	logger         zerolog.Logger
}

func NewAttemptHandler(s service.IAttemptService, l zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: s,
		logger:         l,
	}
}

func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseAttemptQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := validate.Struct(query); err != nil {
		respondWithError(w, http.StatusBadRequest, ValidationError(err))
		return
	}

	list, err := h.attemptService.List(r.Context(), query)
	if err != nil {
		logger := logging.FromRequest(r, h.logger)
		if claims, ok := GetUserFromContext(r.Context()); ok {
			logger = logger.With().Str("admin", claims.Email).Logger()
		}
		logger.Error().Err(err).Msg("error listing relay attempts")
		respondWithError(w, http.StatusInternalServerError, "Failed to list relay attempts")
		return
	}

	respondWithJson(w, http.StatusOK, list)
}

func parseAttemptQuery(r *http.Request) (*model.DTOAttemptQuery, error) {
	values := r.URL.Query()
	query := &model.DTOAttemptQuery{
		Limit:   defaultAttemptLimit,
		Outcome: values.Get("outcome"),
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("Field 'limit' must be an integer")
		}
		query.Limit = limit
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("Field 'offset' must be an integer")
		}
		query.Offset = offset
	}

	return query, nil
}
