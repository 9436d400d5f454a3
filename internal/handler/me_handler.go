package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/spikeapp/spike-server/internal/pkg/response"
	"github.com/spikeapp/spike-server/internal/service"
)

type MeHandler struct {
	auth *service.AuthService
}

func NewMeHandler(auth *service.AuthService) *MeHandler {
	return &MeHandler{auth: auth}
}

// Get returns the profile for the id carried by the validated access
// token. A valid token whose user no longer exists yields 404.
func (h *MeHandler) Get(c *gin.Context) {
	user, err := h.auth.GetProfile(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user})
}
