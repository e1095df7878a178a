package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sahay-api/internal/docqa"
	"sahay-api/internal/extract"
	"sahay-api/internal/predictor"
	"sahay-api/internal/service"
	"sahay-api/internal/session"
)

// respondError maps a core error onto its HTTP status and error kind, so
// callers can branch on the kind instead of parsing messages. Internal
// detail is logged, never returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	var unavailable *service.UnavailableError
	var modelUnavailable *predictor.ModelUnavailableError

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.As(err, &unavailable):
		respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	case errors.As(err, &modelUnavailable):
		respondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Invalid session ID. Please upload a document first.")
	case errors.Is(err, docqa.ErrEmptyDocument):
		respondError(c, http.StatusBadRequest, "EMPTY_DOCUMENT", err.Error())
	case errors.Is(err, docqa.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, "BACKEND_NOT_CONFIGURED",
			"Gemini API key not configured. Please set GEMINI_API_KEY.")
	case errors.Is(err, docqa.ErrGenerationFailed):
		respondError(c, http.StatusBadGateway, "GENERATION_FAILED", err.Error())
	case errors.Is(err, extract.ErrUnsupportedFormat):
		respondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
	case errors.Is(err, extract.ErrExtractionFailed):
		respondError(c, http.StatusBadRequest, "EXTRACTION_FAILED", err.Error())
	default:
		h.logger.Error("Unexpected error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"code": code, "error": message})
}
