package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Создание партии
func (h *Handler) CreateGame(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	g, err := h.Bowling.CreateGame(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// Добавление игрока до старта
func (h *Handler) AddPlayer(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	p, err := h.Bowling.AddPlayer(c.Request.Context(), c.Param("ref"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Старт партии. Обработка идет асинхронно, отвечаем id сообщения
func (h *Handler) StartGame(c *gin.Context) {
	cmd, err := h.Bowling.StartGame(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message_id": cmd.ID})
}

// Бросок игрока, который сейчас у дорожки
func (h *Handler) Roll(c *gin.Context) {
	var req struct {
		Pins *int `json:"pins" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	cmd, err := h.Bowling.Roll(c.Request.Context(), c.Param("ref"), *req.Pins)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message_id": cmd.ID, "frame_id": cmd.TargetID})
}

// Табло партии
func (h *Handler) Scoreboard(c *gin.Context) {
	board, err := h.Bowling.Scoreboard(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Журнал обработанных команд
func (h *Handler) Journal(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.Bowling.Journal(c.Request.Context(), c.Param("ref"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}
