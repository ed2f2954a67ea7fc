package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"saultochat/internal/ai/component"
	"saultochat/internal/config"
	"saultochat/internal/model"
	"saultochat/internal/model/auth"
)

// Client wraps the ChatModel behind the degraded modes the product
// needs: without an API key it serves canned text so the frontend can
// be developed, and a provider failure on the conversational path
// degrades to an apology message instead of an error response.
type Client struct {
	cfg       *config.AIConfig
	chatModel einomodel.ChatModel // nil when no API key is configured
}

// NewClient creates the AI client. An empty API key enables placeholder
// mode instead of failing startup.
func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("AI API key not configured, serving placeholder responses")
		return &Client{cfg: cfg}, nil
	}

	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return &Client{cfg: cfg, chatModel: chatModel}, nil
}

// NewClientWithModel creates a client over an existing ChatModel.
func NewClientWithModel(cfg *config.AIConfig, chatModel einomodel.ChatModel) *Client {
	return &Client{cfg: cfg, chatModel: chatModel}
}

// Chat runs a completion for the conversational path. It never returns
// an error: provider failures degrade to an apology message so the
// user's own message is still persisted and answered.
func (c *Client) Chat(ctx context.Context, messages []*schema.Message, user *auth.User) string {
	if c.chatModel == nil {
		return placeholderText(user)
	}

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		log.Error().Err(err).Msg("completion request failed")
		return fmt.Sprintf("I apologize, but I encountered an error while processing your request. Please try again later. Error: %s", err)
	}
	return response.Content
}

// ChatRaw runs a completion and surfaces provider errors to the caller.
// Used by the stateless endpoint that reports failures as HTTP errors.
func (c *Client) ChatRaw(ctx context.Context, messages []*schema.Message) (string, error) {
	if c.chatModel == nil {
		return placeholderText(nil), nil
	}

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// ChatStream runs a streaming completion. The returned channel carries
// content fragments and is closed after a terminal event: Done on a
// clean finish, Error when the provider fails mid-stream.
func (c *Client) ChatStream(ctx context.Context, messages []*schema.Message, user *auth.User) (<-chan *model.ChatChunk, error) {
	ch := make(chan *model.ChatChunk, 10)

	if c.chatModel == nil {
		go func() {
			defer close(ch)
			ch <- &model.ChatChunk{Content: placeholderText(user)}
			ch <- &model.ChatChunk{Done: true}
		}()
		return ch, nil
	}

	reader, err := c.chatModel.Stream(ctx, messages)
	if err != nil {
		return nil, err
	}

	go func() {
		defer close(ch)
		defer reader.Close()

		for {
			chunk, err := reader.Recv()
			if errors.Is(err, io.EOF) {
				c.send(ctx, ch, &model.ChatChunk{Done: true})
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("completion stream failed")
				c.send(ctx, ch, &model.ChatChunk{Error: err.Error()})
				return
			}
			if chunk.Content == "" {
				continue
			}
			if !c.send(ctx, ch, &model.ChatChunk{Content: chunk.Content}) {
				return
			}
		}
	}()

	return ch, nil
}

func (c *Client) send(ctx context.Context, ch chan<- *model.ChatChunk, chunk *model.ChatChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- chunk:
		return true
	}
}

// placeholderText is served when no API key is configured, so the
// frontend can be exercised without a provider account.
func placeholderText(user *auth.User) string {
	greeting := "Hello!"
	if user != nil {
		if company := user.Company(); company != "" {
			greeting = fmt.Sprintf("Hello %s from %s!", user.Name, company)
		} else {
			greeting = fmt.Sprintf("Hello %s!", user.Name)
		}
	}
	return greeting + " This is a temporary response for UI styling testing. The chat functionality will be enabled once the AI provider is properly configured."
}
