package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/service"
)

// UserHandler profile and admin endpoints.
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler creates the user handler.
func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// UserInfo is the profile shape returned to the frontend.
type UserInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	JobTitle    string `json:"job_title"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	MicrosoftID string `json:"microsoft_id"`
	LastLogin   string `json:"last_login,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toUserInfo(user *auth.User) UserInfo {
	info := UserInfo{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Company:     user.Company(),
		JobTitle:    user.JobTitle,
		Department:  user.Department,
		Role:        user.Role.String(),
		MicrosoftID: user.MicrosoftID,
	}
	if user.LastLogin != nil {
		info.LastLogin = user.LastLogin.Format(time.RFC3339)
	}
	if !user.CreatedAt.IsZero() {
		info.CreatedAt = user.CreatedAt.Format(time.RFC3339)
	}
	return info
}

// Profile returns the authenticated account's profile.
// @Summary      Current user profile
// @Tags         user
// @Produce      json
// @Success      200  {object}  UserInfo
// @Failure      401  {object}  model.ErrorResponse
// @Router       /api/user/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toUserInfo(user))
}

// ListUsers returns all accounts. Admin only.
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {array}   UserInfo
// @Failure      403  {object}  model.ErrorResponse
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, "Failed to list users", err)
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, toUserInfo(user))
	}
	c.JSON(http.StatusOK, infos)
}

// UpdateRole changes an account's role. Admin only.
// @Summary      Update a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "user id"
// @Param        request  body      model.UpdateRoleRequest  true  "new role"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /admin/user/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	userID := c.Param("id")

	var req model.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	err := h.authService.UpdateRole(c.Request.Context(), userID, auth.UserRole(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			badRequest(c, "Invalid role", "")
		case errors.Is(err, service.ErrUserNotFound):
			notFound(c, "User not found")
		default:
			internalError(c, "Failed to update role", err)
		}
		return
	}

	log.Info().Str("user_id", userID).Str("role", req.Role).Msg("updated user role")
	c.JSON(http.StatusOK, gin.H{"success": true, "role": req.Role})
}
