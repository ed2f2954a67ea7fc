package model

// MessageResponse is returned by the sync message endpoint: the updated
// conversation plus the generated assistant message.
type MessageResponse struct {
	Conversation *Conversation `json:"conversation"`
	Message      *Message      `json:"message"`
}

// ChatResponse is the stateless chat endpoint's body.
type ChatResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ErrorResponse is the shared error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ChatChunk is one server-sent event on the streaming endpoint.
// Exactly one of Content / Done / Error is meaningful per event.
type ChatChunk struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UploadResponse is returned after a standalone file upload.
type UploadResponse struct {
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}
