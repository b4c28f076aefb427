package http

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sunstrike-inc/sunstrike/internal/application/subscription/usecases"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/auth"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/config"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/ratelimit"
	"github.com/sunstrike-inc/sunstrike/internal/infrastructure/repository"
	"github.com/sunstrike-inc/sunstrike/internal/interfaces/http/handlers"
	"github.com/sunstrike-inc/sunstrike/internal/interfaces/http/middleware"
	"github.com/sunstrike-inc/sunstrike/internal/shared/logger"
	"github.com/sunstrike-inc/sunstrike/internal/shared/utils"
)

// Router wires the HTTP surface: admin token issuance plus the subscription
// management API. Everything under /api/subscriptions requires a valid token.
type Router struct {
	engine              *gin.Engine
	authHandler         *handlers.AuthHandler
	subscriptionHandler *handlers.SubscriptionHandler
	authMiddleware      *middleware.AuthMiddleware
	loginLimiter        ratelimit.RateLimiter
	loginLimits         ratelimit.RateLimitConfig
	logger              logger.Interface
}

// NewRouter builds the router and its handler dependencies.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	subscriptionRepo := repository.NewSubscriptionRepository(db, log)

	createUC := usecases.NewCreateSubscriptionUseCase(subscriptionRepo, log)
	getUC := usecases.NewGetSubscriptionUseCase(subscriptionRepo, log)
	listUC := usecases.NewListSubscriptionsUseCase(subscriptionRepo, log)
	setActiveUC := usecases.NewSetSubscriptionActiveUseCase(subscriptionRepo, log)
	rotateUC := usecases.NewRotateCredentialUseCase(subscriptionRepo, log)
	deleteUC := usecases.NewDeleteSubscriptionUseCase(subscriptionRepo, log)

	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)

	return &Router{
		engine:              engine,
		authHandler:         handlers.NewAuthHandler(jwtService, hasher, cfg.Auth.Admin, log),
		subscriptionHandler: handlers.NewSubscriptionHandler(createUC, getUC, listUC, setActiveUC, rotateUC, deleteUC, log),
		authMiddleware:      middleware.NewAuthMiddleware(jwtService, log),
		loginLimiter:        ratelimit.NewRedisRateLimiter(redisClient),
		loginLimits: ratelimit.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.LoginPerMinute,
			RequestsPerHour:   cfg.RateLimit.LoginPerHour,
		},
		logger: log,
	}
}

// SetupRoutes configures all HTTP routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())

	r.engine.GET("/healthz", func(c *gin.Context) {
		utils.SuccessResponse(c, 200, "ok", nil)
	})

	api := r.engine.Group("/api")
	{
		api.POST("/auth/token",
			middleware.LoginRateLimit(r.loginLimiter, r.loginLimits, r.logger),
			r.authHandler.Token,
		)

		subscriptions := api.Group("/subscriptions")
		subscriptions.Use(r.authMiddleware.RequireAuth())
		{
			subscriptions.POST("", r.subscriptionHandler.Create)
			subscriptions.GET("", r.subscriptionHandler.List)
			subscriptions.GET("/:id", r.subscriptionHandler.Get)
			subscriptions.PATCH("/:id/active", r.subscriptionHandler.SetActive)
			subscriptions.POST("/:id/rotate", r.subscriptionHandler.RotateCredential)
			subscriptions.DELETE("/:id", r.subscriptionHandler.Delete)
		}
	}
}

// GetEngine returns the gin engine, mainly for tests and server setup.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
