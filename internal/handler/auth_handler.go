package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spikeapp/spike-server/internal/pkg/response"
	"github.com/spikeapp/spike-server/internal/service"
)

// Generic replies for the enumeration-resistant endpoints. The body must
// be byte-identical whether or not the account exists.
const (
	resendGenericMessage = "If an account exists for that email, a new verification code has been sent"
	forgotGenericMessage = "If that account exists, a password reset email has been sent"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user, "needsEmailVerification": true})
}

func (h *AuthHandler) CheckUsername(c *gin.Context) {
	available, err := h.auth.CheckUsernameAvailable(c.Request.Context(), c.Query("username"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"available": available})
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"accessToken": token, "user": user})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	alreadyVerified, err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	message := "Email verified"
	if alreadyVerified {
		message = "Email already verified"
	}
	response.Success(c, gin.H{"message": message})
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req resendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": resendGenericMessage})
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Identifier); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": forgotGenericMessage})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Password has been reset"})
}
