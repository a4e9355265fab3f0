package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	TransferSvc    ports.TransferService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	identity := middleware.Identity()
	txHandler := NewTransactionHandler(deps.TransferSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")

	transactions := v1.Group("/transactions", identity)
	{
		transactions.POST("", rl("transfers"), txHandler.Create)
		transactions.GET("", rl("listings"), txHandler.List)
		transactions.GET("/recent", rl("listings"), txHandler.Recent)
		transactions.GET("/:id", rl("listings"), txHandler.GetByID)
	}

	wallets := v1.Group("/wallets", identity)
	{
		wallets.POST("", rl("wallets"), walletHandler.Create)
		wallets.GET("", rl("listings"), walletHandler.List)
		wallets.DELETE("/:id", rl("wallets"), walletHandler.Deactivate)
	}

	admin := v1.Group("/admin")
	{
		admin.GET("/transactions", rl("admin"), txHandler.ListAll)
	}

	return r
}
