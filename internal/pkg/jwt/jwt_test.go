package jwt

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSessionTokens(t *testing.T) {
	Convey("Given a JWT helper", t, func() {
		j := NewJWT("test-secret", time.Hour)

		Convey("a generated token round-trips its claims", func() {
			token, err := j.GenerateToken("user-1", "jane@acme.com", "admin")
			So(err, ShouldBeNil)
			So(token, ShouldNotBeEmpty)

			claims, err := j.ValidateToken(token)
			So(err, ShouldBeNil)
			So(claims.UserID, ShouldEqual, "user-1")
			So(claims.Email, ShouldEqual, "jane@acme.com")
			So(claims.Role, ShouldEqual, "admin")
		})

		Convey("a token signed with another secret is rejected", func() {
			other := NewJWT("other-secret", time.Hour)
			token, err := other.GenerateToken("user-1", "jane@acme.com", "user")
			So(err, ShouldBeNil)

			_, err = j.ValidateToken(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("an expired token is rejected as expired", func() {
			short := NewJWT("test-secret", -time.Minute)
			token, err := short.GenerateToken("user-1", "jane@acme.com", "user")
			So(err, ShouldBeNil)

			_, err = j.ValidateToken(token)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("garbage is rejected", func() {
			_, err := j.ValidateToken("not-a-token")
			So(err, ShouldEqual, ErrInvalidToken)
		})
	})
}

func TestGenerateStateToken(t *testing.T) {
	Convey("State tokens are non-empty and unique", t, func() {
		a := GenerateStateToken()
		b := GenerateStateToken()
		So(a, ShouldNotBeEmpty)
		So(a, ShouldNotEqual, b)
	})
}
