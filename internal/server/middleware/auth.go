package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/ctxutil"
	"saultochat/internal/service"
)

// SessionCookie is the name of the session token cookie.
const SessionCookie = "session"

// userContextKey is the gin context key for the authenticated user.
const userContextKey = "user"

// Session validates the session token and injects the account into
// both the gin context and the request context. The token rides the
// session cookie; a Bearer header is accepted as a fallback for API
// clients.
func Session(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Code:    40101,
				Message: "Authentication required",
			})
			return
		}

		user, err := authSvc.ValidateSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Code:    40102,
				Message: "Invalid or expired session",
			})
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// DevUser injects a fixed local account on every request. Used when
// OAuth credentials are not configured, so the app stays usable in
// development.
func DevUser(user *auth.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		setUser(c, user)
		c.Next()
	}
}

// AdminOnly rejects non-admin accounts. Must run after Session.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{
				Code:    40301,
				Message: "Access denied",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated account for this request.
func CurrentUser(c *gin.Context) (*auth.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*auth.User)
	return user, ok
}

func setUser(c *gin.Context, user *auth.User) {
	c.Set(userContextKey, user)
	c.Request = c.Request.WithContext(ctxutil.WithUser(c.Request.Context(), user))
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
