package service

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"saultochat/internal/ai"
	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/id"
	"saultochat/internal/repository"
)

// persistTimeout bounds the post-stream write, which runs detached
// from the request context.
const persistTimeout = 10 * time.Second

// ChatService orchestrates the conversational flow: load history,
// compose the payload, call the completion API, persist both turns.
type ChatService struct {
	store    repository.ConversationStore
	aiClient *ai.Client
	composer *ai.Composer
}

// NewChatService creates the chat service.
func NewChatService(store repository.ConversationStore, aiClient *ai.Client, composer *ai.Composer) *ChatService {
	return &ChatService{
		store:    store,
		aiClient: aiClient,
		composer: composer,
	}
}

// NewMessage builds a conversation message stamped with the current
// time. The sender identity fields are filled for user turns only.
func NewMessage(sender, text string, user *auth.User, file *model.FileAttachment) model.Message {
	msg := model.Message{
		ID:        id.New(),
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		File:      file,
	}
	if sender == model.SenderUser && user != nil {
		msg.SenderID = user.ID
		msg.SenderEmail = user.Email
	}
	return msg
}

// SendMessage handles one synchronous turn: the user message is
// appended first, then the assistant reply is generated and appended.
// A provider failure degrades to an apology reply rather than an
// error, so the user's message is never lost.
func (s *ChatService) SendMessage(ctx context.Context, user *auth.User, conversationID, text string, file *model.FileAttachment) (*model.MessageResponse, error) {
	conv, err := s.store.GetOrCreate(ctx, conversationID, user.ID)
	if err != nil {
		return nil, err
	}

	userMsg := NewMessage(model.SenderUser, text, user, file)
	conv, err = s.store.AppendMessages(ctx, conv.ID, user.ID, []model.Message{userMsg})
	if err != nil {
		return nil, err
	}

	payload := s.composer.BuildPayload(ctx, ai.PersonaFor(user), conv.Messages, text, file)
	reply := s.aiClient.Chat(ctx, payload, user)

	botMsg := NewMessage(model.SenderBot, reply, nil, nil)
	conv, err = s.store.AppendMessages(ctx, conv.ID, user.ID, []model.Message{botMsg})
	if err != nil {
		return nil, err
	}

	return &model.MessageResponse{
		Conversation: conv,
		Message:      &botMsg,
	}, nil
}

// StreamMessage handles one streaming turn. Fragments are forwarded to
// the caller as they arrive; both turns are persisted once the stream
// finishes cleanly. Nothing is persisted on a mid-stream failure, so a
// retry starts from the same history.
func (s *ChatService) StreamMessage(ctx context.Context, user *auth.User, req *model.ChatRequest) (<-chan *model.ChatChunk, error) {
	conv, err := s.store.Get(ctx, req.ConversationID, user.ID)
	if err != nil {
		return nil, err
	}

	var file *model.FileAttachment
	if req.File != nil && req.File.UploadedPath != "" {
		file = &model.FileAttachment{
			Name: req.File.Name,
			Path: req.File.UploadedPath,
			Type: req.File.Type,
			Size: req.File.Size,
		}
	}

	payload := s.composer.BuildPayload(ctx, ai.PersonaFor(user), conv.Messages, req.Message, file)

	chunks, err := s.aiClient.ChatStream(ctx, payload, user)
	if err != nil {
		return nil, err
	}

	out := make(chan *model.ChatChunk, 10)
	go func() {
		defer close(out)

		var reply string
		for chunk := range chunks {
			if chunk.Done {
				s.persistTurn(conv.ID, user, req.Message, reply, file)
			}
			if chunk.Content != "" {
				reply += chunk.Content
			}

			select {
			case <-ctx.Done():
				return
			case out <- chunk:
			}
		}
	}()

	return out, nil
}

// persistTurn writes both messages after a drained stream. It runs on
// a fresh context: the client may have disconnected right after the
// terminal event, and the turn should survive that.
func (s *ChatService) persistTurn(conversationID string, user *auth.User, text, reply string, file *model.FileAttachment) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	msgs := []model.Message{
		NewMessage(model.SenderUser, text, user, file),
		NewMessage(model.SenderBot, reply, nil, nil),
	}
	if _, err := s.store.AppendMessages(ctx, conversationID, user.ID, msgs); err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to persist streamed turn")
	}
}

// Complete runs a stateless completion with no stored history. Provider
// errors are surfaced so the handler can report them.
func (s *ChatService) Complete(ctx context.Context, user *auth.User, message string) (string, error) {
	payload := []*schema.Message{
		schema.SystemMessage(ai.PersonaFor(user)),
		schema.UserMessage(message),
	}
	return s.aiClient.ChatRaw(ctx, payload)
}
