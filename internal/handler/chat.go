package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"saultochat/internal/model"
	"saultochat/internal/repository"
	"saultochat/internal/service"
)

// ChatHandler conversational endpoints: the synchronous message turn,
// the SSE stream, and the stateless completion.
type ChatHandler struct {
	chatService   *service.ChatService
	uploadService *service.UploadService
}

// NewChatHandler creates the chat handler.
func NewChatHandler(chatService *service.ChatService, uploadService *service.UploadService) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		uploadService: uploadService,
	}
}

// SendMessage appends a user turn and returns the assistant reply.
// @Summary      Send a message
// @Description  Appends the user message, generates the assistant reply, and returns the updated conversation
// @Tags         chat
// @Accept       multipart/form-data
// @Produce      json
// @Param        conversation_id  formData  string  true   "conversation id"
// @Param        message          formData  string  false  "message text"
// @Param        file             formData  file    false  "attachment"
// @Success      200  {object}  model.MessageResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /api/message [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	conversationID := c.PostForm("conversation_id")
	text := c.PostForm("message")

	if conversationID == "" {
		badRequest(c, "Missing conversation ID", "")
		return
	}

	// An invalid attachment is dropped, not fatal; the message itself
	// still goes through.
	var file *model.FileAttachment
	if header, err := c.FormFile("file"); err == nil && header != nil {
		file, err = h.uploadService.StoreAttachment(c.Request.Context(), header)
		if err != nil {
			log.Warn().Err(err).Str("filename", header.Filename).Msg("attachment rejected")
			file = nil
		}
	}

	if text == "" && file == nil {
		badRequest(c, "Missing message content (text or file)", "")
		return
	}

	resp, err := h.chatService.SendMessage(c.Request.Context(), user, conversationID, text, file)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Conversation not found or access denied")
			return
		}
		internalError(c, "Failed to add message", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Stream streams the assistant reply over server-sent events.
// @Summary      Stream a chat reply
// @Description  Emits content fragments as SSE data events, then a done event; both turns are persisted after the stream drains
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  model.ChatRequest  true  "chat request"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /api/chat/stream [post]
func (h *ChatHandler) Stream(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}
	if req.ConversationID == "" {
		badRequest(c, "Missing conversation ID", "")
		return
	}

	chunks, err := h.chatService.StreamMessage(c.Request.Context(), user, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			notFound(c, "Conversation not found or access denied")
			return
		}
		internalError(c, "Failed to start stream", err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}
		writeSSE(w, chunk)
		return !chunk.Done && chunk.Error == ""
	})
}

// writeSSE writes one chunk as a raw SSE data line.
func writeSSE(w io.Writer, chunk *model.ChatChunk) {
	data, err := json.Marshal(chunk)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal stream chunk")
		return
	}
	io.WriteString(w, "data: ")
	w.Write(data)
	io.WriteString(w, "\n\n")
}

// Complete runs a stateless completion.
// @Summary      Stateless chat
// @Description  One completion with no stored history; provider failures surface as a 500
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      model.ChatRequest  true  "chat request"
// @Success      200      {object}  model.ChatResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Router       /api/chat [post]
func (h *ChatHandler) Complete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	reply, err := h.chatService.Complete(c.Request.Context(), user, req.Message)
	if err != nil {
		internalError(c, "Chat completion failed", err)
		return
	}

	c.JSON(http.StatusOK, model.ChatResponse{
		Message:        reply,
		ConversationID: req.ConversationID,
	})
}
