// Package app provides HTTP handlers for the account service.
package app

import (
	"github.com/gin-gonic/gin"

	"github.com/nourabuild/account-service/internal/sdk/middleware"
)

// ----------------------------------------------------------------------------
// Route Registration
// ----------------------------------------------------------------------------

func (a *App) RegisterRoutes() *gin.Engine {
	router := gin.New()

	// Global middleware chain
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(a.log))
	router.Use(middleware.CORS())

	if a.maxUpload > 0 {
		router.MaxMultipartMemory = a.maxUpload
	}

	v1 := router.Group("/api/v1")
	{
		health := v1.Group("/health")
		{
			health.GET("/readiness", a.HandleReadiness)
			health.GET("/liveness", a.HandleLiveness)
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/register", a.HandleRegister)
			auth.POST("/verify", a.HandleVerify)
			auth.POST("/verify/resend", a.HandleResendVerification)
			auth.POST("/login", a.HandleLogin)
		}

		user := v1.Group("/user")
		user.Use(middleware.Authenticate(a.tokens))
		{
			user.GET("/whoami", a.HandleWhoAmI)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.Authenticate(a.tokens), middleware.Admin())
		{
			admin.GET("/users", a.HandleListUsers)
		}
	}

	return router
}
