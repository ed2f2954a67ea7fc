package ai

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/filekind"
	"saultochat/internal/pkg/storage"
)

// maxInlineChars caps how much attachment text is inlined into a
// payload entry, to stay clear of token limits.
const maxInlineChars = 10000

// personaTail is appended to every persona string.
const personaTail = ". You are branded with green colors and provide accurate, professional, and concise information to help the user. When users upload files, analyze their content and provide relevant insights or assistance."

// PersonaFor builds the assistant persona from the user's profile.
// Absent fields drop their clause rather than leaving a blank.
func PersonaFor(user *auth.User) string {
	if user == nil {
		return "You are a helpful Sumersault assistant" + personaTail
	}

	persona := "You are a helpful Sumersault assistant for " + user.Name
	if company := user.Company(); company != "" {
		persona += " at " + company
	}
	if user.JobTitle != "" {
		persona += ", who works as " + user.JobTitle
	}
	if user.Department != "" {
		persona += " in the " + user.Department + " department"
	}
	return persona + personaTail
}

// Composer turns a stored conversation into a completion payload. It
// reads attachment content through the blob store, so the payload
// reflects what is actually on disk at composition time.
type Composer struct {
	store storage.Storage
}

// NewComposer creates a composer over the given blob store.
func NewComposer(store storage.Storage) *Composer {
	return &Composer{store: store}
}

// BuildPayload produces the ordered completion payload: persona first,
// then the history with user/bot mapped to user/assistant roles, then
// the latest user message unless the history already ends with that
// exact text. The input history is not modified.
func (c *Composer) BuildPayload(ctx context.Context, persona string, history []model.Message, latestText string, latestFile *model.FileAttachment) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(persona))

	for i := range history {
		msg := &history[i]
		switch msg.Sender {
		case model.SenderUser:
			content := msg.Text
			if msg.File != nil {
				content += c.renderAttachment(ctx, msg.File)
			}
			messages = append(messages, schema.UserMessage(content))
		case model.SenderBot:
			messages = append(messages, schema.AssistantMessage(msg.Text, nil))
		}
	}

	// The caller may have persisted the latest message before composing;
	// only append it when the history does not already end with it.
	if !endsWith(history, latestText) {
		content := latestText
		if latestFile != nil {
			content += c.renderAttachment(ctx, latestFile)
		}
		messages = append(messages, schema.UserMessage(content))
	}

	return messages
}

func endsWith(history []model.Message, text string) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	return last.Sender == model.SenderUser && last.Text == text
}

// renderAttachment describes a file attachment for the payload: text
// content is inlined (capped), everything else becomes a short note.
func (c *Composer) renderAttachment(ctx context.Context, file *model.FileAttachment) string {
	exists, err := c.store.Exists(ctx, file.Path)
	if err != nil {
		log.Error().Err(err).Str("key", file.Path).Msg("failed to check attachment")
		return fmt.Sprintf("\n\nFile attached: %s (error reading content: %s)", file.Name, err)
	}
	if !exists {
		return fmt.Sprintf("\n\nFile attached: %s (file not found on server)", file.Name)
	}

	if filekind.Classify(file.Type, file.Name) != filekind.Text {
		return fmt.Sprintf("\n\nFile attached: %s (binary/non-text file, type: %s)", file.Name, file.Type)
	}

	reader, err := c.store.Download(ctx, file.Path)
	if err != nil {
		log.Error().Err(err).Str("key", file.Path).Msg("failed to read attachment")
		return fmt.Sprintf("\n\nFile attached: %s (error reading content: %s)", file.Name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		log.Error().Err(err).Str("key", file.Path).Msg("failed to read attachment")
		return fmt.Sprintf("\n\nFile attached: %s (error reading content: %s)", file.Name, err)
	}

	excerpt := string(data)
	truncated := false
	if len(excerpt) > maxInlineChars {
		excerpt = excerpt[:maxInlineChars]
		truncated = true
	}

	out := fmt.Sprintf("\n\nFile attached: %s\nContent of the file:\n```\n%s", file.Name, excerpt)
	if truncated {
		out += "\n... (content truncated due to length)"
	}
	return out + "\n```"
}
