package repository

import (
	"context"
	"errors"

	"saultochat/internal/model"
)

// ErrNotFound covers both an absent conversation and one owned by a
// different user; callers cannot tell the two apart.
var ErrNotFound = errors.New("conversation not found")

// ConversationStore persists conversations per owner. Backed by Mongo
// in production and by an in-memory map in tests and credential-less
// development; the HTTP layer only sees this interface.
type ConversationStore interface {
	// GetOrCreate returns the owner's conversation by id, or creates a
	// fresh empty one when id is empty.
	GetOrCreate(ctx context.Context, id, ownerID string) (*model.Conversation, error)

	// Get returns the owner's conversation by id.
	Get(ctx context.Context, id, ownerID string) (*model.Conversation, error)

	// AppendMessages appends messages in order and bumps updated_at,
	// returning the updated conversation.
	AppendMessages(ctx context.Context, id, ownerID string, msgs []model.Message) (*model.Conversation, error)

	// List returns one summary per conversation, most recently updated
	// first.
	List(ctx context.Context, ownerID string) ([]model.ConversationSummary, error)

	// Delete removes the owner's conversation.
	Delete(ctx context.Context, id, ownerID string) error

	// SetPinned toggles the pinned flag.
	SetPinned(ctx context.Context, id, ownerID string, pinned bool) error

	// SetTitle renames the conversation.
	SetTitle(ctx context.Context, id, ownerID, title string) error
}

// NewConversationTitle is the title given to a freshly created thread.
const NewConversationTitle = "New Conversation"
