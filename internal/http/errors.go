package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/service"
)

// errorStatus traduce los errores de dominio a codigos HTTP. El bool es false
// para errores no esperados.
func errorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrCodeMismatch):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrCodeNotRequested),
		errors.Is(err, domain.ErrEmptyDescription),
		errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrCaptureInvalid),
		errors.Is(err, service.ErrInvalidDetails),
		errors.Is(err, service.ErrUnknownPaymentMethod),
		errors.Is(err, service.ErrInvalidCampaign):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrProfessionalNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, true
	case errors.Is(err, service.ErrEmailSendFailure):
		return http.StatusServiceUnavailable, true
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrDashboardDisabled):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrCampaignUnavailable):
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, false
	}
}

// writeError responde con el codigo mapeado; lo inesperado se loguea y se oculta.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status, known := errorStatus(err)
	if !known {
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	if status == http.StatusUnauthorized {
		c.JSON(status, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
