package service

import (
	"context"

	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/repository"
)

// ConversationService exposes thread management on top of the store.
// Every operation is scoped to the calling user.
type ConversationService struct {
	store repository.ConversationStore
}

// NewConversationService creates the conversation service.
func NewConversationService(store repository.ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

// FetchOrCreate returns the conversation by id, or a fresh empty one
// when no id is given.
func (s *ConversationService) FetchOrCreate(ctx context.Context, user *auth.User, conversationID string) (*model.Conversation, error) {
	return s.store.GetOrCreate(ctx, conversationID, user.ID)
}

// List returns the user's sidebar summaries.
func (s *ConversationService) List(ctx context.Context, user *auth.User) ([]model.ConversationSummary, error) {
	return s.store.List(ctx, user.ID)
}

// Delete removes the user's conversation. Attachments referenced by
// its messages are left in place.
func (s *ConversationService) Delete(ctx context.Context, user *auth.User, conversationID string) error {
	return s.store.Delete(ctx, conversationID, user.ID)
}

// SetPinned toggles the pinned flag.
func (s *ConversationService) SetPinned(ctx context.Context, user *auth.User, conversationID string, pinned bool) error {
	return s.store.SetPinned(ctx, conversationID, user.ID, pinned)
}
