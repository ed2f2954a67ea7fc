package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/storage/local"
)

func newTestComposer(t *testing.T) (*Composer, *local.LocalStorage) {
	t.Helper()
	store, err := local.NewLocalStorage(t.TempDir(), "/api/uploads")
	if err != nil {
		t.Fatal(err)
	}
	return NewComposer(store), store
}

func TestPersonaFor(t *testing.T) {
	Convey("Persona interpolation", t, func() {
		Convey("a full profile fills every clause", func() {
			user := &auth.User{
				Name:       "Jane Doe",
				Email:      "jane@acme.com",
				JobTitle:   "Engineer",
				Department: "R&D",
			}
			persona := PersonaFor(user)
			So(persona, ShouldStartWith, "You are a helpful Sumersault assistant for Jane Doe at Acme, who works as Engineer in the R&D department")
			So(persona, ShouldContainSubstring, "branded with green colors")
		})

		Convey("absent fields drop their clause", func() {
			user := &auth.User{Name: "Bob", Email: "bob@gmail.com"}
			persona := PersonaFor(user)
			So(persona, ShouldStartWith, "You are a helpful Sumersault assistant for Bob. ")
			So(persona, ShouldNotContainSubstring, " at ")
			So(persona, ShouldNotContainSubstring, "works as")
		})

		Convey("a nil user gets the anonymous persona", func() {
			So(PersonaFor(nil), ShouldStartWith, "You are a helpful Sumersault assistant. ")
		})
	})
}

func TestComposerBuildPayload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a composer over local storage", t, func() {
		composer, store := newTestComposer(t)
		persona := PersonaFor(nil)

		Convey("the system entry always comes first", func() {
			payload := composer.BuildPayload(ctx, persona, nil, "hi", nil)
			So(len(payload), ShouldEqual, 2)
			So(payload[0].Role, ShouldEqual, schema.System)
			So(payload[0].Content, ShouldEqual, persona)
		})

		Convey("history roles map user/bot to user/assistant", func() {
			history := []model.Message{
				{Text: "question", Sender: model.SenderUser},
				{Text: "answer", Sender: model.SenderBot},
			}
			payload := composer.BuildPayload(ctx, persona, history, "follow-up", nil)
			So(len(payload), ShouldEqual, 4)
			So(payload[1].Role, ShouldEqual, schema.User)
			So(payload[1].Content, ShouldEqual, "question")
			So(payload[2].Role, ShouldEqual, schema.Assistant)
			So(payload[2].Content, ShouldEqual, "answer")
			So(payload[3].Role, ShouldEqual, schema.User)
			So(payload[3].Content, ShouldEqual, "follow-up")
		})

		Convey("the latest message is not duplicated when history ends with it", func() {
			history := []model.Message{
				{Text: "already stored", Sender: model.SenderUser},
			}
			payload := composer.BuildPayload(ctx, persona, history, "already stored", nil)
			So(len(payload), ShouldEqual, 2)

			Convey("but a bot tail does not suppress the append", func() {
				history = append(history, model.Message{Text: "already stored", Sender: model.SenderBot})
				payload = composer.BuildPayload(ctx, persona, history, "already stored", nil)
				So(len(payload), ShouldEqual, 4)
			})
		})

		Convey("text attachments are inlined", func() {
			_, err := store.Upload(ctx, "k1_notes.txt", strings.NewReader("file body"), "text/plain")
			So(err, ShouldBeNil)

			history := []model.Message{{
				Text:   "see attached",
				Sender: model.SenderUser,
				File:   &model.FileAttachment{Name: "notes.txt", Path: "k1_notes.txt", Type: "text/plain"},
			}}
			payload := composer.BuildPayload(ctx, persona, history, "see attached", nil)
			So(payload[1].Content, ShouldContainSubstring, "File attached: notes.txt")
			So(payload[1].Content, ShouldContainSubstring, "Content of the file:\n```\nfile body")
			So(payload[1].Content, ShouldNotContainSubstring, "content truncated")
		})

		Convey("oversized text attachments get the truncation marker", func() {
			big := strings.Repeat("a", maxInlineChars+500)
			_, err := store.Upload(ctx, "k2_big.txt", strings.NewReader(big), "text/plain")
			So(err, ShouldBeNil)

			history := []model.Message{{
				Text:   "big file",
				Sender: model.SenderUser,
				File:   &model.FileAttachment{Name: "big.txt", Path: "k2_big.txt", Type: "text/plain"},
			}}
			payload := composer.BuildPayload(ctx, persona, history, "big file", nil)
			So(payload[1].Content, ShouldContainSubstring, "... (content truncated due to length)")
			So(payload[1].Content, ShouldNotContainSubstring, big)
		})

		Convey("binary attachments become a note", func() {
			_, err := store.Upload(ctx, "k3_pic.png", strings.NewReader("\x89PNG"), "image/png")
			So(err, ShouldBeNil)

			history := []model.Message{{
				Text:   "a picture",
				Sender: model.SenderUser,
				File:   &model.FileAttachment{Name: "pic.png", Path: "k3_pic.png", Type: "image/png"},
			}}
			payload := composer.BuildPayload(ctx, persona, history, "a picture", nil)
			So(payload[1].Content, ShouldContainSubstring, "File attached: pic.png (binary/non-text file, type: image/png)")
		})

		Convey("missing attachments become a note", func() {
			history := []model.Message{{
				Text:   "gone",
				Sender: model.SenderUser,
				File:   &model.FileAttachment{Name: "gone.txt", Path: "nope.txt", Type: "text/plain"},
			}}
			payload := composer.BuildPayload(ctx, persona, history, "gone", nil)
			So(payload[1].Content, ShouldContainSubstring, "File attached: gone.txt (file not found on server)")
		})

		Convey("the input history is not mutated", func() {
			history := []model.Message{{Text: "original", Sender: model.SenderUser}}
			composer.BuildPayload(ctx, persona, history, "other", nil)
			So(history[0].Text, ShouldEqual, "original")
			So(len(history), ShouldEqual, 1)
		})
	})
}
