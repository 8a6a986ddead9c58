package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenstack/lumen-rag/internal/models"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

// AnswerService is the query entrypoint consumed by the HTTP layer.
type AnswerService interface {
	Ask(ctx context.Context, q models.Query) (models.Answer, error)
}

type handlers struct {
	service AnswerService
	logger  *slog.Logger
}

type askRequest struct {
	Query   string               `json:"query" binding:"required"`
	History []models.ChatMessage `json:"history"`
	Mode    string               `json:"mode"`
	Scope   string               `json:"scope"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	q := models.Query{
		Text:    req.Query,
		History: req.History,
		Mode:    models.Mode(req.Mode),
		Scope:   models.CorpusScope(req.Scope),
	}
	switch q.Mode {
	case "", models.ModeThinking, models.ModeNonThinking:
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown mode: " + req.Mode})
		return
	}
	switch q.Scope {
	case "", models.ScopeForum, models.ScopeMessaging, models.ScopeInsights:
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown scope: " + req.Scope})
		return
	}

	answer, err := h.service.Ask(c.Request.Context(), q)
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) && appErr.Invalid {
			c.JSON(http.StatusBadRequest, errorResponse{Error: appErr.Msg})
			return
		}
		h.logger.Error("ask failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
