package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brilliance/launcher-gateway/internal/handlers"
	"github.com/brilliance/launcher-gateway/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	ChatHandler     *handlers.ChatHandler
	SettingsHandler *handlers.SettingsHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:80", "http://localhost:3000", "http://localhost:8080"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Chat
	api.GET("/chat/threads", cfg.ChatHandler.ListThreads)
	api.POST("/chat/threads", cfg.ChatHandler.CreateThread)
	api.GET("/chat/threads/:token/messages", cfg.ChatHandler.GetHistory)
	api.POST("/chat/threads/:token/turns", cfg.ChatHandler.SendMessage)
	api.DELETE("/chat/threads/:token", cfg.ChatHandler.DeleteThread)
	// Settings
	api.GET("/settings", cfg.SettingsHandler.Get)
	api.PUT("/settings", cfg.SettingsHandler.Save)
	api.POST("/settings/validate", cfg.SettingsHandler.Validate)

	return router
}

// SplitOrigins parses a comma-separated origin list from the environment.
func SplitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
