package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saultochat/internal/model"
	"saultochat/internal/model/auth"
	"saultochat/internal/server/middleware"
)

// requireUser returns the authenticated account or writes a 401.
func requireUser(c *gin.Context) (*auth.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Code:    40101,
			Message: "Authentication required",
		})
	}
	return user, ok
}

func badRequest(c *gin.Context, message, detail string) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Code:    40001,
		Message: message,
		Detail:  detail,
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, model.ErrorResponse{
		Code:    40401,
		Message: message,
	})
}

func internalError(c *gin.Context, message string, err error) {
	resp := model.ErrorResponse{
		Code:    50001,
		Message: message,
	}
	if err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}
