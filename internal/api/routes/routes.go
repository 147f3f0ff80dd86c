package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jobdeckhq/jobdeck/internal/api/handlers"
	"github.com/jobdeckhq/jobdeck/internal/api/middleware"
	"github.com/jobdeckhq/jobdeck/internal/services"
)

type Deps struct {
	Auth         *handlers.AuthHandler
	Applications *handlers.ApplicationHandler
	AuthService  services.AuthService
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	gate := middleware.SessionAuth(d.AuthService)

	auth := r.Group("/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", gate, d.Auth.Logout)
	auth.GET("/me", gate, d.Auth.Me)
	auth.PATCH("/profile", gate, d.Auth.UpdateProfile)

	api := r.Group("/api")
	api.Use(gate)

	api.GET("/applications", d.Applications.List)
	api.GET("/applications/stats", d.Applications.Stats)
	api.GET("/applications/:id/description", d.Applications.FullDescription)
	api.GET("/applications/:id/resume", d.Applications.ResumeURL)
	api.POST("/applications", d.Applications.Create)
	api.PATCH("/applications/:id", d.Applications.Update)
	api.DELETE("/applications/:id", d.Applications.Delete)
}
