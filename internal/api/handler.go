package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gauge-erp-backend/internal/lifecycle"
	"gauge-erp-backend/internal/status"
	"gauge-erp-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	lifecycle *lifecycle.Service
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *lifecycle.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		lifecycle: svc,
		webpush:   webpushOptions,
	}
}

// abortWithError translates domain errors to HTTP status codes: invalid
// status values are client errors, disallowed transitions are conflicts,
// unknown gauges are 404s, and anything else is a persistence failure.
func abortWithError(c *gin.Context, err error) {
	var invalidStatus *status.InvalidStatusError
	var invalidTransition *lifecycle.InvalidTransitionError
	var notEligible *lifecycle.NotEligibleError

	switch {
	case errors.As(err, &invalidStatus):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "gauge not found"})
	case errors.As(err, &invalidTransition), errors.As(err, &notEligible):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
