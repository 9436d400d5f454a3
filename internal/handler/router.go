package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/spikeapp/spike-server/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Me        *MeHandler
	Health    *HealthHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Check)

	api.POST("/auth/register", deps.Auth.Register)
	api.GET("/auth/check-username", deps.Auth.CheckUsername)
	api.POST("/auth/verify-email", deps.Auth.VerifyEmail)
	api.POST("/auth/resend-verification", deps.Auth.ResendVerification)
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/forgot-password", deps.Auth.ForgotPassword)
	api.POST("/auth/reset-password", deps.Auth.ResetPassword)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/me", deps.Me.Get)
}
