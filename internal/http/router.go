package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"staff-directory/internal/domain"
	"staff-directory/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens *service.TokenService,
	authH *AuthHandler,
	userH *UserHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	requireAuth := JWTAuthMiddleware(tokens)
	requireAdmin := RequireRoles(domain.RoleAdmin, domain.RoleManager)

	auth := r.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/check-first-login", authH.CheckFirstLogin)
	auth.POST("/set-first-password", authH.SetFirstPassword)
	auth.POST("/resend-invite", authH.ResendInvite)
	auth.POST("/logout", requireAuth, authH.Logout)
	auth.GET("/me", requireAuth, authH.Me)
	auth.POST("/refresh", requireAuth, authH.Refresh)

	users := r.Group("/users", requireAuth, requireAdmin)
	users.POST("", userH.CreateUser)
	users.GET("", userH.ListUsers)
	users.GET("/:id", userH.GetUser)
	users.PATCH("/:id", userH.UpdateUser)
	users.PATCH("/:id/change-password", userH.ChangePassword)
	users.PATCH("/:id/activate", userH.Activate)
	users.PATCH("/:id/deactivate", userH.Deactivate)
	users.DELETE("/:id", userH.RemoveUser)

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
