package cache

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory state store", t, func() {
		store := NewMemoryStateStore(time.Minute)

		Convey("a stored token is consumed exactly once", func() {
			So(store.Put(ctx, "tok-1"), ShouldBeNil)

			ok, err := store.Consume(ctx, "tok-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			ok, err = store.Consume(ctx, "tok-1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("an unknown token does not consume", func() {
			ok, err := store.Consume(ctx, "never-stored")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("an expired token does not consume", func() {
			expired := NewMemoryStateStore(-time.Second)
			So(expired.Put(ctx, "tok-2"), ShouldBeNil)

			ok, err := expired.Consume(ctx, "tok-2")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
