package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"saultochat/internal/model"
)

func TestMemoryConversationStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty in-memory conversation store", t, func() {
		store := NewMemoryConversationStore()

		Convey("GetOrCreate without an id creates a fresh conversation", func() {
			conv, err := store.GetOrCreate(ctx, "", "owner-1")
			So(err, ShouldBeNil)
			So(conv.ID, ShouldNotBeEmpty)
			So(conv.Title, ShouldEqual, NewConversationTitle)
			So(conv.Messages, ShouldBeEmpty)

			Convey("and two creations get distinct ids", func() {
				other, err := store.GetOrCreate(ctx, "", "owner-1")
				So(err, ShouldBeNil)
				So(other.ID, ShouldNotEqual, conv.ID)
			})
		})

		Convey("Get of an unknown id returns ErrNotFound", func() {
			_, err := store.Get(ctx, "missing", "owner-1")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When messages are appended", func() {
			conv, err := store.GetOrCreate(ctx, "", "owner-1")
			So(err, ShouldBeNil)

			first := model.Message{ID: "m1", Text: "hello", Sender: model.SenderUser}
			second := model.Message{ID: "m2", Text: "hi there", Sender: model.SenderBot}

			updated, err := store.AppendMessages(ctx, conv.ID, "owner-1", []model.Message{first, second})
			So(err, ShouldBeNil)

			Convey("order is preserved", func() {
				So(len(updated.Messages), ShouldEqual, 2)
				So(updated.Messages[0].ID, ShouldEqual, "m1")
				So(updated.Messages[1].ID, ShouldEqual, "m2")
			})

			Convey("appends for a different owner fail", func() {
				_, err := store.AppendMessages(ctx, conv.ID, "owner-2", []model.Message{first})
				So(err, ShouldEqual, ErrNotFound)
			})
		})

		Convey("List previews", func() {
			conv, _ := store.GetOrCreate(ctx, "", "owner-1")

			Convey("an empty conversation shows the placeholder", func() {
				summaries, err := store.List(ctx, "owner-1")
				So(err, ShouldBeNil)
				So(len(summaries), ShouldEqual, 1)
				So(summaries[0].Preview, ShouldEqual, "New conversation")
			})

			Convey("a long first message is truncated to 50 characters", func() {
				long := strings.Repeat("x", 60)
				_, err := store.AppendMessages(ctx, conv.ID, "owner-1", []model.Message{
					{ID: "m1", Text: long, Sender: model.SenderUser},
				})
				So(err, ShouldBeNil)

				summaries, err := store.List(ctx, "owner-1")
				So(err, ShouldBeNil)
				So(summaries[0].Preview, ShouldEqual, strings.Repeat("x", 50)+"...")
			})

			Convey("a short first message is unchanged", func() {
				_, err := store.AppendMessages(ctx, conv.ID, "owner-1", []model.Message{
					{ID: "m1", Text: "short one", Sender: model.SenderUser},
				})
				So(err, ShouldBeNil)

				summaries, err := store.List(ctx, "owner-1")
				So(err, ShouldBeNil)
				So(summaries[0].Preview, ShouldEqual, "short one")
			})
		})

		Convey("List orders by most recent append", func() {
			older, _ := store.GetOrCreate(ctx, "", "owner-1")
			newer, _ := store.GetOrCreate(ctx, "", "owner-1")

			_, err := store.AppendMessages(ctx, older.ID, "owner-1", []model.Message{
				{ID: "m1", Text: "first", Sender: model.SenderUser},
			})
			So(err, ShouldBeNil)

			time.Sleep(2 * time.Millisecond)
			_, err = store.AppendMessages(ctx, newer.ID, "owner-1", []model.Message{
				{ID: "m2", Text: "second", Sender: model.SenderUser},
			})
			So(err, ShouldBeNil)

			summaries, err := store.List(ctx, "owner-1")
			So(err, ShouldBeNil)
			So(len(summaries), ShouldEqual, 2)
			So(summaries[0].ID, ShouldEqual, newer.ID)
			So(summaries[1].ID, ShouldEqual, older.ID)
		})

		Convey("Ownership is isolated across operations", func() {
			conv, _ := store.GetOrCreate(ctx, "", "owner-1")

			Convey("another owner cannot read it", func() {
				_, err := store.Get(ctx, conv.ID, "owner-2")
				So(err, ShouldEqual, ErrNotFound)
			})

			Convey("another owner cannot delete it", func() {
				So(store.Delete(ctx, conv.ID, "owner-2"), ShouldEqual, ErrNotFound)

				// still present for its owner
				_, err := store.Get(ctx, conv.ID, "owner-1")
				So(err, ShouldBeNil)
			})

			Convey("another owner cannot pin it", func() {
				So(store.SetPinned(ctx, conv.ID, "owner-2", true), ShouldEqual, ErrNotFound)
			})

			Convey("another owner does not see it in their list", func() {
				summaries, err := store.List(ctx, "owner-2")
				So(err, ShouldBeNil)
				So(summaries, ShouldBeEmpty)
			})
		})

		Convey("SetPinned toggles the flag", func() {
			conv, _ := store.GetOrCreate(ctx, "", "owner-1")

			So(store.SetPinned(ctx, conv.ID, "owner-1", true), ShouldBeNil)
			summaries, _ := store.List(ctx, "owner-1")
			So(summaries[0].Pinned, ShouldBeTrue)

			So(store.SetPinned(ctx, conv.ID, "owner-1", false), ShouldBeNil)
			summaries, _ = store.List(ctx, "owner-1")
			So(summaries[0].Pinned, ShouldBeFalse)
		})

		Convey("SetTitle renames the conversation", func() {
			conv, _ := store.GetOrCreate(ctx, "", "owner-1")

			So(store.SetTitle(ctx, conv.ID, "owner-1", "budget talk"), ShouldBeNil)
			got, err := store.Get(ctx, conv.ID, "owner-1")
			So(err, ShouldBeNil)
			So(got.Title, ShouldEqual, "budget talk")

			So(store.SetTitle(ctx, conv.ID, "owner-2", "hijack"), ShouldEqual, ErrNotFound)
		})

		Convey("Delete removes the conversation", func() {
			conv, _ := store.GetOrCreate(ctx, "", "owner-1")
			So(store.Delete(ctx, conv.ID, "owner-1"), ShouldBeNil)

			_, err := store.Get(ctx, conv.ID, "owner-1")
			So(err, ShouldEqual, ErrNotFound)
		})
	})
}
