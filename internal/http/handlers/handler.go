package handlers

import (
	"errors"
	"net/http"

	"bowling_engine/internal/domain"
	"bowling_engine/internal/logger"
	"bowling_engine/internal/service"

	"github.com/gin-gonic/gin"
)

// общие зависимости обработчиков
type Handler struct {
	Bowling *service.BowlingService
	Version string
}

func New(bowling *service.BowlingService, version string) *Handler {
	return &Handler{Bowling: bowling, Version: version}
}

// Проверка живости
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.Version})
}

// writeError переводит ошибки сервиса и домена в HTTP-статусы
func writeError(c *gin.Context, err error) {
	var (
		invalid   *domain.InvalidRollError
		violation *domain.StateViolationError
		pre       *domain.PreconditionError
		nf        *domain.NotFoundError
		conflict  *domain.ConflictError
	)

	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "remaining": invalid.Remaining})
	case errors.Is(err, service.ErrNoPlayers),
		errors.Is(err, service.ErrGameStarted),
		errors.Is(err, service.ErrNoActiveFrame),
		errors.As(err, &violation),
		errors.As(err, &pre),
		errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
