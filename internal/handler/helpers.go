package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/spikeapp/spike-server/internal/middleware"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
	"github.com/spikeapp/spike-server/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps the closed error set to statuses and user-facing
// messages. Credential and code/token failures stay deliberately vague so
// callers cannot probe which accounts or secrets exist.
func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "Username or email already in use")
	case errors.Is(err, appErr.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, appErr.ErrInvalidOrExpiredCode):
		response.Error(c, http.StatusBadRequest, "Invalid or expired code")
	case errors.Is(err, appErr.ErrInvalidOrExpiredToken):
		response.Error(c, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Not found")
	default:
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}
