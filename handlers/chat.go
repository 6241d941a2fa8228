package handlers

import (
	"net/http"

	"bookline/models"
	"bookline/services/assistant"
	"bookline/services/extract"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler is the messaging-channel surface: one inbound message per call,
// exactly one reply per call.
type ChatHandler struct {
	Assistant assistant.AssistantService
	Extractor extract.Extractor
	Logger    *zap.Logger
}

func NewChatHandler(svc assistant.AssistantService, extractor extract.Extractor, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{Assistant: svc, Extractor: extractor, Logger: logger}
}

// HandleTurn processes one chat message: extraction, then the assistant turn.
func (h *ChatHandler) HandleTurn(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid chat request", err.Error())
		return
	}

	ctx := c.Request.Context()

	session, err := h.Assistant.Session(ctx, req.ConversationID)
	if err != nil {
		h.Logger.Error("failed to load session for extraction", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Something went wrong", "please try again")
		return
	}

	candidates, err := h.Extractor.Extract(ctx, req.Text, session)
	if err != nil {
		// Extraction is best-effort; a failed extraction is an empty
		// candidate map, and the assistant re-asks its question.
		h.Logger.Warn("extraction failed, continuing with no candidates",
			zap.String("conversationId", req.ConversationID), zap.Error(err))
		candidates = models.CandidateMap{}
	}

	result, err := h.Assistant.HandleTurn(ctx, models.TurnRequest{
		ConversationID: req.ConversationID,
		CustomerID:     req.CustomerID,
		Language:       req.Language,
		Message:        req.Text,
		Candidates:     candidates,
	})
	if err != nil {
		h.Logger.Error("turn failed", zap.String("conversationId", req.ConversationID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Something went wrong", "please try again")
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		Reply:     result.ReplyText,
		Escalated: result.IsEscalated,
		Complete:  result.IsComplete,
	})
}

// ResetSession discards a conversation's collected booking state.
func (h *ChatHandler) ResetSession(c *gin.Context) {
	var req struct {
		ConversationID string `json:"conversation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid reset request", err.Error())
		return
	}

	if err := h.Assistant.CancelSession(c.Request.Context(), req.ConversationID); err != nil {
		h.Logger.Error("failed to reset session", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to reset session", "please try again")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// GetSession exposes the current collection state of a conversation.
func (h *ChatHandler) GetSession(c *gin.Context) {
	conversationID := c.Param("conversationID")
	session, err := h.Assistant.Session(c.Request.Context(), conversationID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load session", err.Error())
		return
	}
	if session == nil {
		utils.JSONError(c, http.StatusNotFound, "No session for conversation", conversationID)
		return
	}
	c.JSON(http.StatusOK, session)
}
