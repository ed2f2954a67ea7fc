// Package auth serves the Microsoft OAuth login flow. The callback
// sets an HS256 session cookie; there is no password path.
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"saultochat/internal/server/middleware"
	"saultochat/internal/service"
)

// Handler OAuth login endpoints.
type Handler struct {
	authService  *service.AuthService
	secureCookie bool
}

// NewHandler creates the auth handler. secureCookie should be true
// behind HTTPS.
func NewHandler(authService *service.AuthService, secureCookie bool) *Handler {
	return &Handler{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

// MicrosoftLogin redirects to the Microsoft authorization page with a
// one-time anti-forgery token.
// @Summary      Start Microsoft login
// @Tags         auth
// @Success      302
// @Router       /microsoft-login [get]
func (h *Handler) MicrosoftLogin(c *gin.Context) {
	url, err := h.authService.LoginURL(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build login url")
		c.String(http.StatusInternalServerError, "Authentication failed: %s", err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// MicrosoftCallback finishes the OAuth flow and sets the session
// cookie. A state mismatch leaves the session anonymous.
// @Summary      Microsoft OAuth callback
// @Tags         auth
// @Param        state  query  string  true   "anti-forgery token"
// @Param        code   query  string  false  "authorization code"
// @Success      302
// @Failure      400  {string}  string
// @Router       /microsoft-auth [get]
func (h *Handler) MicrosoftCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		log.Error().Str("error", errParam).Msg("oauth provider returned an error")
		c.String(http.StatusBadRequest, "Authentication failed: %s", errParam)
		return
	}

	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Authentication failed: No authorization code")
		return
	}

	session, user, err := h.authService.HandleCallback(c.Request.Context(), c.Query("state"), code)
	if err != nil {
		if errors.Is(err, service.ErrStateMismatch) {
			log.Error().Msg("state mismatch - CSRF protection triggered")
			c.String(http.StatusBadRequest, "Authentication failed: Invalid state")
			return
		}
		log.Error().Err(err).Msg("microsoft authentication failed")
		c.String(http.StatusInternalServerError, "Authentication failed: %s", err)
		return
	}

	maxAge := int(h.authService.SessionExpiry().Seconds())
	c.SetCookie(middleware.SessionCookie, session, maxAge, "/", "", h.secureCookie, true)

	log.Info().Str("email", user.Email).Msg("user logged in")
	c.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie.
// @Summary      Log out
// @Tags         auth
// @Success      302
// @Router       /logout [get]
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/login")
}
