package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moonai-trainer/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	userH *UserHandler,
	sessionH *SessionHandler,
	promptH *PromptHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	auth.POST("/register", userH.Register)
	auth.POST("/login", userH.Login)
	auth.POST("/refresh", userH.Refresh)
	auth.GET("/me", JWTAuthMiddleware(jwtSvc), userH.Me)

	prompts := r.Group("/api/prompts", JWTAuthMiddleware(jwtSvc))
	prompts.GET("/system", promptH.GetSystemPrompt)
	prompts.PUT("/system", promptH.UpdateSystemPrompt)
	prompts.POST("/system/sync", promptH.SyncSystemPrompt)

	sessions := r.Group("/api/sessions", JWTAuthMiddleware(jwtSvc))
	sessions.POST("", sessionH.CreateSession)
	sessions.GET("", sessionH.ListSessions)
	sessions.GET("/count", sessionH.CountSessions)
	sessions.GET("/:id", sessionH.GetSession)
	sessions.PATCH("/:id", sessionH.UpdateSession)
	sessions.DELETE("/:id", sessionH.DeleteSession)
	sessions.DELETE("", sessionH.DeleteAllSessions)
	sessions.POST("/:id/complete", sessionH.CompleteSession)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
