package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moonai-trainer/internal/repository"
	"moonai-trainer/internal/service"
)

// SessionHandler mantiene dependencias para endpoints de sesiones de entrenamiento.
type SessionHandler struct {
	logger      *zap.Logger
	sessionServ *service.SessionService
}

func NewSessionHandler(logger *zap.Logger, sessionServ *service.SessionService) *SessionHandler {
	return &SessionHandler{
		logger:      logger,
		sessionServ: sessionServ,
	}
}

// CreateSession maneja POST /api/sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		ManagerName       string `json:"manager_name" binding:"required"`
		ClientDescription string `json:"client_description"`
		DifficultyLevel   string `json:"difficulty_level"`
		ClientType        string `json:"client_type"`
		FirstMessage      string `json:"first_message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	created, err := h.sessionServ.Create(c.Request.Context(), service.CreateSessionInput{
		UserID:            claims.UserID,
		ManagerName:       req.ManagerName,
		ClientDescription: req.ClientDescription,
		DifficultyLevel:   req.DifficultyLevel,
		ClientType:        req.ClientType,
		FirstMessage:      req.FirstMessage,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoiceAgentNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice agent not configured"})
		case errors.Is(err, service.ErrSignedURLMissing), errors.Is(err, service.ErrConversationIDMissing):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			h.logger.Error("create session failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not create conversation session"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetSession maneja GET /api/sessions/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionServ.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ListSessions maneja GET /api/sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	input := listInput(c)

	sessions, err := h.sessionServ.List(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CountSessions maneja GET /api/sessions/count.
func (h *SessionHandler) CountSessions(c *gin.Context) {
	input := listInput(c)

	count, err := h.sessionServ.Count(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("count sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// UpdateSession maneja PATCH /api/sessions/:id.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		ManagerName         *string    `json:"manager_name"`
		ClientDescription   *string    `json:"client_description"`
		DifficultyLevel     *string    `json:"difficulty_level"`
		ClientType          *string    `json:"client_type"`
		FirstMessage        *string    `json:"first_message"`
		SessionSystemPrompt *string    `json:"session_system_prompt"`
		SignedWSURL         *string    `json:"signed_ws_url"`
		ConversationID      *string    `json:"conversation_id"`
		SessionEnd          *time.Time `json:"session_end"`
		ConversationLog     *string    `json:"conversation_log"`
		AIAnalysis          *string    `json:"ai_analysis"`
		Score               *float64   `json:"score"`
		Feedback            *string    `json:"feedback"`
		Status              *string    `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessionServ.Update(c.Request.Context(), id, repository.UpdateSessionInput{
		ManagerName:         req.ManagerName,
		ClientDescription:   req.ClientDescription,
		DifficultyLevel:     req.DifficultyLevel,
		ClientType:          req.ClientType,
		FirstMessage:        req.FirstMessage,
		SessionSystemPrompt: req.SessionSystemPrompt,
		SignedWSURL:         req.SignedWSURL,
		ConversationID:      req.ConversationID,
		SessionEnd:          req.SessionEnd,
		ConversationLog:     req.ConversationLog,
		AIAnalysis:          req.AIAnalysis,
		Score:               req.Score,
		Feedback:            req.Feedback,
		Status:              req.Status,
	})
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("update session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession maneja DELETE /api/sessions/:id.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.sessionServ.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("delete session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// DeleteAllSessions maneja DELETE /api/sessions.
func (h *SessionHandler) DeleteAllSessions(c *gin.Context) {
	deleted, err := h.sessionServ.DeleteAll(c.Request.Context())
	if err != nil {
		h.logger.Error("delete all sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// CompleteSession maneja POST /api/sessions/:id/complete. Una falla del
// análisis no es una falla del request: el trainee siempre recibe la sesión
// completada, degradada si hizo falta.
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var req struct {
		ConversationLog string `json:"conversation_log" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid complete session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessionServ.Complete(c.Request.Context(), id, req.ConversationLog)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrSessionAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "session already completed"})
		default:
			h.logger.Error("complete session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete session"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

func sessionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

func listInput(c *gin.Context) service.ListSessionsInput {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.ListSessionsInput{
		ManagerName: c.Query("manager_name"),
		Status:      c.Query("status"),
		SortBy:      c.Query("sort_by"),
		SortDir:     c.Query("sort_dir"),
		Offset:      offset,
		Limit:       limit,
	}
}
