package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"saultochat/internal/model"
	"saultochat/internal/repository"
	"saultochat/internal/service"
)

// ConversationHandler thread management endpoints.
type ConversationHandler struct {
	convService *service.ConversationService
}

// NewConversationHandler creates the conversation handler.
func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// Get fetches a conversation, or creates a fresh one without an id.
// @Summary      Fetch or create a conversation
// @Description  Returns the conversation by id, or creates an empty one when no id is given
// @Tags         conversation
// @Produce      json
// @Param        id  query     string  false  "conversation id"
// @Success      200 {object}  model.Conversation
// @Failure      404 {object}  model.ErrorResponse
// @Router       /api/conversation [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	conv, err := h.convService.FetchOrCreate(c.Request.Context(), user, c.Query("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Conversation not found")
			return
		}
		internalError(c, "Failed to load conversation", err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// List returns the sidebar summaries.
// @Summary      List conversations
// @Description  One entry per conversation with a 50-character preview, most recently updated first
// @Tags         conversation
// @Produce      json
// @Success      200 {array}   model.ConversationSummary
// @Router       /api/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	summaries, err := h.convService.List(c.Request.Context(), user)
	if err != nil {
		internalError(c, "Failed to list conversations", err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// Delete removes a conversation.
// @Summary      Delete a conversation
// @Tags         conversation
// @Produce      json
// @Param        id  query     string  true  "conversation id"
// @Success      200 {object}  map[string]bool
// @Failure      404 {object}  model.ErrorResponse
// @Router       /api/conversation [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	conversationID := c.Query("id")
	if conversationID == "" {
		badRequest(c, "Missing conversation ID", "")
		return
	}

	err := h.convService.Delete(c.Request.Context(), user, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Conversation not found or access denied")
			return
		}
		internalError(c, "Failed to delete conversation", err)
		return
	}

	log.Info().Str("conversation_id", conversationID).Msg("deleted conversation")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Pin pins or unpins a conversation.
// @Summary      Pin or unpin a conversation
// @Tags         conversation
// @Accept       json
// @Produce      json
// @Param        request  body      model.PinRequest  true  "pin request"
// @Success      200      {object}  map[string]interface{}
// @Failure      404      {object}  model.ErrorResponse
// @Router       /api/conversation/pin [patch]
func (h *ConversationHandler) Pin(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req model.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing conversation ID", err.Error())
		return
	}

	err := h.convService.SetPinned(c.Request.Context(), user, req.ConversationID, req.Pinned)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Conversation not found or access denied")
			return
		}
		internalError(c, "Failed to pin conversation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "pinned": req.Pinned})
}
