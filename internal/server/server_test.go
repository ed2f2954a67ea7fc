package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"saultochat/internal/ai"
	"saultochat/internal/config"
	"saultochat/internal/model"
	"saultochat/internal/pkg/cache"
	"saultochat/internal/pkg/storage/local"
	"saultochat/internal/repository"
	authRepo "saultochat/internal/repository/auth"
)

// mockChatModel returns a fixed reply, split into fragments when
// streaming.
type mockChatModel struct {
	reply string
}

func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *mockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	var chunks []*schema.Message
	for _, word := range strings.SplitAfter(m.reply, " ") {
		chunks = append(chunks, schema.AssistantMessage(word, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (m *mockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// sseRecorder adds the CloseNotifier that gin's Stream helper expects.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool, 1),
	}
}

func (r *sseRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 5000, Mode: "test"},
		AI:     config.AIConfig{Provider: "openai", Model: "gpt-4o"},
		Auth: config.AuthConfig{
			SessionSecret: "test-secret",
			SessionExpiry: time.Hour,
			StateTTL:      time.Minute,
		},
		Upload: config.UploadConfig{MaxSize: 16 * 1024 * 1024},
		Storage: config.StorageConfig{
			Type:  "local",
			Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: "/api/uploads"},
		},
	}
}

func newTestServer(t *testing.T, reply string) *Server {
	t.Helper()

	cfg := testConfig(t)
	store, err := local.NewLocalStorage(cfg.Storage.Local.BasePath, cfg.Storage.Local.BaseURL)
	if err != nil {
		t.Fatal(err)
	}

	return NewWithDeps(cfg, Deps{
		ConvStore: repository.NewMemoryConversationStore(),
		UserStore: authRepo.NewMemoryUserStore(),
		States:    cache.NewMemoryStateStore(cfg.Auth.StateTTL),
		Storage:   store,
		AIClient:  ai.NewClientWithModel(&cfg.AI, &mockChatModel{reply: reply}),
	})
}

func messageForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestMessageFlow(t *testing.T) {
	Convey("Given a server with a mock chat model", t, func() {
		srv := newTestServer(t, "mocked reply")

		Convey("a conversation can be created", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/conversation", nil)
			srv.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)

			var conv model.Conversation
			So(json.Unmarshal(w.Body.Bytes(), &conv), ShouldBeNil)
			So(conv.ID, ShouldNotBeEmpty)
			So(conv.Messages, ShouldBeEmpty)

			Convey("and a message turn appends user then bot", func() {
				body, contentType := messageForm(t, map[string]string{
					"conversation_id": conv.ID,
					"message":         "hello there",
				})
				w := httptest.NewRecorder()
				req := httptest.NewRequest("POST", "/api/message", body)
				req.Header.Set("Content-Type", contentType)
				srv.Engine().ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var resp model.MessageResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Conversation.Messages), ShouldEqual, 2)
				So(resp.Conversation.Messages[0].Sender, ShouldEqual, model.SenderUser)
				So(resp.Conversation.Messages[0].Text, ShouldEqual, "hello there")
				So(resp.Conversation.Messages[1].Sender, ShouldEqual, model.SenderBot)
				So(resp.Conversation.Messages[1].Text, ShouldEqual, "mocked reply")
				So(resp.Message.Text, ShouldEqual, "mocked reply")

				Convey("and the sidebar preview reflects the first message", func() {
					w := httptest.NewRecorder()
					req := httptest.NewRequest("GET", "/api/conversations", nil)
					srv.Engine().ServeHTTP(w, req)
					So(w.Code, ShouldEqual, http.StatusOK)

					var summaries []model.ConversationSummary
					So(json.Unmarshal(w.Body.Bytes(), &summaries), ShouldBeNil)
					So(len(summaries), ShouldEqual, 1)
					So(summaries[0].Preview, ShouldEqual, "hello there")
				})
			})
		})

		Convey("a message without a conversation id is rejected", func() {
			body, contentType := messageForm(t, map[string]string{"message": "hi"})
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/message", body)
			req.Header.Set("Content-Type", contentType)
			srv.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("a message to a foreign conversation id is a 404", func() {
			body, contentType := messageForm(t, map[string]string{
				"conversation_id": "does-not-exist",
				"message":         "hi",
			})
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/message", body)
			req.Header.Set("Content-Type", contentType)
			srv.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStreamFlow(t *testing.T) {
	Convey("Given a server with a mock chat model", t, func() {
		srv := newTestServer(t, "streamed words here")

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/conversation", nil)
		srv.Engine().ServeHTTP(w, req)
		So(w.Code, ShouldEqual, http.StatusOK)

		var conv model.Conversation
		So(json.Unmarshal(w.Body.Bytes(), &conv), ShouldBeNil)

		Convey("the stream emits content fragments and a done event", func() {
			payload, _ := json.Marshal(model.ChatRequest{
				Message:        "stream me",
				ConversationID: conv.ID,
			})

			rec := newSSERecorder()
			req := httptest.NewRequest("POST", "/api/chat/stream", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			srv.Engine().ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/event-stream")

			body := rec.Body.String()
			So(body, ShouldContainSubstring, `data: {"content":"streamed "}`)
			So(body, ShouldContainSubstring, `data: {"done":true}`)

			Convey("and both turns were persisted", func() {
				w := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/api/conversation?id="+conv.ID, nil)
				srv.Engine().ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var stored model.Conversation
				So(json.Unmarshal(w.Body.Bytes(), &stored), ShouldBeNil)
				So(len(stored.Messages), ShouldEqual, 2)
				So(stored.Messages[0].Sender, ShouldEqual, model.SenderUser)
				So(stored.Messages[0].Text, ShouldEqual, "stream me")
				So(stored.Messages[1].Sender, ShouldEqual, model.SenderBot)
				So(stored.Messages[1].Text, ShouldEqual, "streamed words here")
			})
		})

		Convey("a stream for an unknown conversation is a 404", func() {
			payload, _ := json.Marshal(model.ChatRequest{
				Message:        "stream me",
				ConversationID: "nope",
			})

			rec := newSSERecorder()
			req := httptest.NewRequest("POST", "/api/chat/stream", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			srv.Engine().ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAuthAndProfile(t *testing.T) {
	Convey("Given a server without OAuth configured", t, func() {
		srv := newTestServer(t, "reply")

		Convey("requests run as the local dev user", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/user/profile", nil)
			srv.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)

			var profile map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &profile), ShouldBeNil)
			So(profile["email"], ShouldEqual, "dev@localhost")
			So(profile["role"], ShouldEqual, "admin")
		})

		Convey("the admin user list is reachable for the dev admin", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/admin/users", nil)
			srv.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("a callback with a bogus state stays anonymous", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/microsoft-auth?state=bogus&code=abc", nil)
			srv.Engine().ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "Invalid state")
			for _, cookie := range w.Result().Cookies() {
				So(cookie.Name, ShouldNotEqual, "session")
			}
		})
	})
}

func TestUploadEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv := newTestServer(t, "reply")

		upload := func(filename, content string) *httptest.ResponseRecorder {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			part, err := writer.CreateFormFile("file", filename)
			So(err, ShouldBeNil)
			_, err = part.Write([]byte(content))
			So(err, ShouldBeNil)
			So(writer.Close(), ShouldBeNil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/upload", body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			srv.Engine().ServeHTTP(w, req)
			return w
		}

		Convey("notes.txt uploads and downloads round-trip", func() {
			w := upload("notes.txt", "file content")
			So(w.Code, ShouldEqual, http.StatusOK)

			var resp model.UploadResponse
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.OriginalName, ShouldEqual, "notes.txt")

			dw := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/uploads/"+resp.Filename, nil)
			srv.Engine().ServeHTTP(dw, req)
			So(dw.Code, ShouldEqual, http.StatusOK)
			So(dw.Body.String(), ShouldEqual, "file content")
		})

		Convey("notes.exe is rejected with a 400", func() {
			w := upload("notes.exe", "MZ")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("downloading an unknown file is a 404", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/uploads/absent.txt", nil)
			srv.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
