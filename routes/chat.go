package routes

import (
	"context"
	"net/http"
	"time"

	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/models"
	"news-rag-chatbot/utils"

	"github.com/gin-gonic/gin"
)

// Answerer runs the RAG pipeline for one query.
type Answerer interface {
	Answer(ctx context.Context, sessionID, query string) models.ChatResponse
}

// SessionManager owns session record lifecycle.
type SessionManager interface {
	EnsureSession(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

// ChatLog is the two-tier message log.
type ChatLog interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	List(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	Clear(ctx context.Context, sessionID string) error
}

type ChatDeps struct {
	Orchestrator Answerer
	Sessions     SessionManager
	Log          ChatLog
}

func SetupChatRoutes(router *gin.Engine, deps ChatDeps) {
	chat := router.Group("/chat")

	chat.POST("", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_input",
				"sessionId and message are required", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		// Lazy create; duplicate creates from racing writers are tolerated.
		if err := deps.Sessions.EnsureSession(ctx, req.SessionID); err != nil {
			logger.Warn("session create failed", "session_id", req.SessionID, "error", err)
		}

		if err := deps.Log.Append(ctx, models.ChatMessage{
			SessionID: req.SessionID,
			Content:   req.Message,
			IsUser:    true,
			CreatedAt: time.Now(),
		}); err != nil {
			logger.Warn("failed to log user message", "session_id", req.SessionID, "error", err)
		}

		resp := deps.Orchestrator.Answer(ctx, req.SessionID, req.Message)

		if err := deps.Log.Append(ctx, models.ChatMessage{
			SessionID: req.SessionID,
			Content:   resp.Message,
			IsUser:    false,
			Sources:   resp.Sources,
			CreatedAt: time.Now(),
		}); err != nil {
			logger.Warn("failed to log assistant message", "session_id", req.SessionID, "error", err)
		}

		c.JSON(http.StatusOK, resp)
	})

	chat.GET("/:session_id", func(c *gin.Context) {
		sessionID := c.Param("session_id")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		messages, err := deps.Log.List(ctx, sessionID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to retrieve conversation", nil)
			return
		}

		c.JSON(http.StatusOK, models.SessionHistory{
			SessionID: sessionID,
			Messages:  messages,
		})
	})

	chat.DELETE("/:session_id", func(c *gin.Context) {
		sessionID := c.Param("session_id")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		if err := deps.Log.Clear(ctx, sessionID); err != nil {
			utils.RespondWithInternalError(c, "Failed to clear session", nil)
			return
		}
		if err := deps.Sessions.Delete(ctx, sessionID); err != nil {
			utils.RespondWithInternalError(c, "Failed to clear session", nil)
			return
		}

		// Clearing an already-cleared session is a success, not an error.
		c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "success": true})
	})
}
