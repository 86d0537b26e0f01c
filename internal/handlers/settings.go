package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/brilliance/launcher-gateway/internal/apperr"
	"github.com/brilliance/launcher-gateway/internal/logger"
	"github.com/brilliance/launcher-gateway/internal/services"
)

type SettingsHandler struct {
	log      *logger.Logger
	settings services.SettingsService
}

func NewSettingsHandler(log *logger.Logger, settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{log: log.With("Handler", "SettingsHandler"), settings: settings}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	view, err := h.settings.Get(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *SettingsHandler) Save(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var in services.SettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	view, err := h.settings.Save(c.Request.Context(), in)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, view)
}

// Validate checks a provider's stored credential against the live API.
func (h *SettingsHandler) Validate(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var body struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrValidation, err))
		return
	}
	if err := h.settings.ValidateProvider(c.Request.Context(), body.Provider); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"valid": true})
}
