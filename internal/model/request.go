package model

// ChatRequest is the JSON body of the stateless chat and streaming
// endpoints. The sync message endpoint uses multipart form fields
// instead so a file can ride along.
type ChatRequest struct {
	Message        string       `json:"message" binding:"required"`
	ConversationID string       `json:"conversation_id,omitempty"`
	File           *FileRef     `json:"file,omitempty"`
	Options        *ChatOptions `json:"options,omitempty"`
}

// FileRef points at an already-uploaded attachment by its stored name.
type FileRef struct {
	Name         string `json:"name"`
	UploadedPath string `json:"uploadedPath"`
	Type         string `json:"type,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// ChatOptions per-request model parameters.
type ChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// PinRequest toggles the pinned flag on a conversation.
type PinRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Pinned         bool   `json:"pinned"`
}

// UpdateRoleRequest changes a user's role (admin only).
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
