package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"manoya/internal/domain"
	"manoya/internal/repository"
)

// DirectoryHandler expone la taxonomia y el directorio publico, sin contactos.
type DirectoryHandler struct {
	logger *zap.Logger
	pros   repository.ProfessionalRepository
}

func NewDirectoryHandler(logger *zap.Logger, pros repository.ProfessionalRepository) *DirectoryHandler {
	return &DirectoryHandler{logger: logger, pros: pros}
}

// ListTrades maneja GET /trades.
func (h *DirectoryHandler) ListTrades(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"trades":    domain.TradeLabels(),
		"urgencies": domain.UrgencyLabels(),
	})
}

// ListProfessionals maneja GET /professionals?q=.
func (h *DirectoryHandler) ListProfessionals(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		pros []domain.Professional
		err  error
	)
	if q := repository.CleanSearchQuery(c.Query("q")); q != "" {
		pros, err = h.pros.Search(ctx, q, repository.DefaultSearchLimit)
	} else {
		pros, err = h.pros.List(ctx)
	}
	if err != nil {
		h.logger.Error("list professionals failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list professionals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"professionals": domain.PublicList(pros)})
}

// GetProfessional maneja GET /professionals/:id.
func (h *DirectoryHandler) GetProfessional(c *gin.Context) {
	p, err := h.pros.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProfessionalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "professional not found"})
			return
		}
		h.logger.Error("get professional failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get professional"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"professional": p.Public()})
}
