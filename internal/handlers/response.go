package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brilliance/launcher-gateway/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAppError maps the service error taxonomy onto HTTP statuses.
func RespondAppError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		RespondError(c, http.StatusBadRequest, "validation", err)
	case errors.Is(err, apperr.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrNotConfigured):
		RespondError(c, http.StatusUnprocessableEntity, "not_configured", err)
	case errors.Is(err, apperr.ErrLoopBoundExceeded):
		RespondError(c, http.StatusBadGateway, "tool_round_limit", err)
	case errors.Is(err, apperr.ErrProviderFailure):
		RespondError(c, http.StatusBadGateway, "provider_failure", err)
	case errors.Is(err, apperr.ErrToolExecution):
		RespondError(c, http.StatusInternalServerError, "tool_execution", err)
	case errors.Is(err, apperr.ErrPersistence):
		RespondError(c, http.StatusInternalServerError, "persistence", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
