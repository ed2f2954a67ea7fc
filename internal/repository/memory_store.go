package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"saultochat/internal/model"
)

// MemoryConversationStore keeps conversations in a process-local map.
// Used when Mongo is not configured and in tests; it implements the
// same owner-scoping contract as the Mongo store.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
}

// NewMemoryConversationStore creates an empty in-memory store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		conversations: make(map[string]*model.Conversation),
	}
}

var _ ConversationStore = (*MemoryConversationStore)(nil)

// GetOrCreate fetches by id, or creates an empty conversation when no
// id is supplied.
func (s *MemoryConversationStore) GetOrCreate(ctx context.Context, id, ownerID string) (*model.Conversation, error) {
	if id != "" {
		return s.Get(ctx, id, ownerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    ownerID,
		Title:     NewConversationTitle,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv

	return copyConversation(conv), nil
}

// Get fetches the owner's conversation by id.
func (s *MemoryConversationStore) Get(ctx context.Context, id, ownerID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.lookup(id, ownerID)
	if err != nil {
		return nil, err
	}
	return copyConversation(conv), nil
}

// AppendMessages appends messages in order and bumps updated_at.
func (s *MemoryConversationStore) AppendMessages(ctx context.Context, id, ownerID string, msgs []model.Message) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(id, ownerID)
	if err != nil {
		return nil, err
	}

	conv.Messages = append(conv.Messages, msgs...)
	conv.UpdatedAt = time.Now().UTC()

	return copyConversation(conv), nil
}

// List returns sidebar summaries, most recently updated first.
func (s *MemoryConversationStore) List(ctx context.Context, ownerID string) ([]model.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*model.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == ownerID {
			owned = append(owned, conv)
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})

	summaries := make([]model.ConversationSummary, 0, len(owned))
	for _, conv := range owned {
		summaries = append(summaries, conv.Summary())
	}
	return summaries, nil
}

// Delete removes the owner's conversation.
func (s *MemoryConversationStore) Delete(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(id, ownerID); err != nil {
		return err
	}
	delete(s.conversations, id)
	return nil
}

// SetPinned toggles the pinned flag.
func (s *MemoryConversationStore) SetPinned(ctx context.Context, id, ownerID string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(id, ownerID)
	if err != nil {
		return err
	}
	conv.Pinned = pinned
	return nil
}

// SetTitle renames the conversation.
func (s *MemoryConversationStore) SetTitle(ctx context.Context, id, ownerID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(id, ownerID)
	if err != nil {
		return err
	}
	conv.Title = title
	return nil
}

// lookup must be called with the mutex held.
func (s *MemoryConversationStore) lookup(id, ownerID string) (*model.Conversation, error) {
	conv, ok := s.conversations[id]
	if !ok || conv.UserID != ownerID {
		return nil, ErrNotFound
	}
	return conv, nil
}

func copyConversation(conv *model.Conversation) *model.Conversation {
	out := *conv
	out.Messages = make([]model.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return &out
}
