package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docverify-backend/internal/accounts"
	"docverify-backend/internal/shared/config"
	"docverify-backend/internal/shared/metrics"
	"docverify-backend/internal/shared/server/middleware"
	"docverify-backend/internal/shared/server/respond"
	"docverify-backend/internal/verifications"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config              config.Config
	VerificationHandler *verifications.Handler
	AccountHandler      *accounts.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"START_VERIFICATION": {Rate: 0.5, Burst: 5},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/verifications" {
					return "START_VERIFICATION"
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.VerificationHandler != nil {
		deps.VerificationHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}

	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
