package model

import (
	"time"
)

// Sender values for Message. The wire format keeps the original "bot"
// naming for assistant messages.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Conversation is an ordered thread of messages owned by one user.
// IDs are ObjectID hex strings so the in-memory and Mongo stores share
// one shape.
type Conversation struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	Pinned    bool      `bson:"pinned" json:"pinned"`
	Messages  []Message `bson:"messages" json:"messages"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Message is a single turn. Immutable once appended; order defines the
// context sent to the completion API.
type Message struct {
	ID          string          `bson:"id" json:"id"`
	Text        string          `bson:"text" json:"text"`
	Sender      string          `bson:"sender" json:"sender"` // user | bot
	SenderID    string          `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	SenderEmail string          `bson:"sender_email,omitempty" json:"sender_email,omitempty"`
	Timestamp   string          `bson:"timestamp" json:"timestamp"` // ISO-8601
	File        *FileAttachment `bson:"file,omitempty" json:"file,omitempty"`
}

// FileAttachment references an uploaded file from a message. The file
// outlives the conversation; nothing garbage-collects it.
type FileAttachment struct {
	Name string `bson:"name" json:"name"` // original filename
	Path string `bson:"path" json:"path"` // storage key
	Type string `bson:"type" json:"type"` // declared content type
	Size int64  `bson:"size" json:"size"`
}

// ConversationSummary is the sidebar entry for a conversation.
type ConversationSummary struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
	Pinned  bool   `json:"pinned"`
}

const (
	previewLimit   = 50
	defaultPreview = "New conversation"
)

// Summary derives the sidebar entry: the first message's text truncated
// to 50 characters, or a placeholder for an empty thread.
func (c *Conversation) Summary() ConversationSummary {
	preview := defaultPreview
	if len(c.Messages) > 0 && c.Messages[0].Text != "" {
		preview = c.Messages[0].Text
	}
	if len(preview) > previewLimit {
		preview = preview[:previewLimit] + "..."
	}
	return ConversationSummary{
		ID:      c.ID,
		Preview: preview,
		Pinned:  c.Pinned,
	}
}
