package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moonai-trainer/internal/service"
)

// PromptHandler administra el system prompt base del agente.
type PromptHandler struct {
	logger     *zap.Logger
	promptServ *service.PromptService
	gateway    *service.ConversationGateway
}

func NewPromptHandler(logger *zap.Logger, promptServ *service.PromptService, gateway *service.ConversationGateway) *PromptHandler {
	return &PromptHandler{
		logger:     logger,
		promptServ: promptServ,
		gateway:    gateway,
	}
}

// GetSystemPrompt maneja GET /api/prompts/system.
func (h *PromptHandler) GetSystemPrompt(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"system_prompt": h.promptServ.SystemPrompt()})
}

// UpdateSystemPrompt maneja PUT /api/prompts/system.
func (h *PromptHandler) UpdateSystemPrompt(c *gin.Context) {
	var req struct {
		SystemPrompt string `json:"system_prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.promptServ.SaveSystemPrompt(req.SystemPrompt); err != nil {
		h.logger.Error("save system prompt failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save system prompt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"system_prompt": h.promptServ.SystemPrompt()})
}

// SyncSystemPrompt maneja POST /api/prompts/system/sync: trae el prompt
// configurado en el agente remoto y lo guarda como base local.
func (h *PromptHandler) SyncSystemPrompt(c *gin.Context) {
	prompt, err := h.gateway.FetchAgentPrompt(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrVoiceAgentNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice agent not configured"})
			return
		}
		h.logger.Error("fetch agent prompt failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch agent prompt"})
		return
	}

	if err := h.promptServ.SaveSystemPrompt(prompt); err != nil {
		h.logger.Error("save synced prompt failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save system prompt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"system_prompt": prompt})
}
