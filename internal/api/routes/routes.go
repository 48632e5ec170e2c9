package routes

import (
	"log/slog"
	"time"

	"chat-api/internal/api/handlers"
	"chat-api/internal/api/middleware"
	"chat-api/internal/repositories/postgres"
	"chat-api/internal/services"
	"chat-api/internal/token"
	"chat-api/internal/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// Options carries the wiring inputs that are not shared service instances.
type Options struct {
	Codec     *token.Codec
	OAuth     *oauth2.Config
	ClientURL string
	Prod      bool
	Logger    *slog.Logger
}

type Router struct {
	engine              *gin.Engine
	wsHandler           *ws.Handler
	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	conversationHandler *handlers.ConversationHandler
	messageHandler      *handlers.MessageHandler
	rateLimitMW         *middleware.RateLimitMiddleware
	authMW              *middleware.AuthMiddleware
	prod                bool
}

func NewRouter(
	db *gorm.DB,
	registry *ws.Registry,
	redisService *services.RedisService,
	events *services.EventPublisher,
	opts Options,
) *Router {
	if opts.Prod {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	userRepo := postgres.NewUserRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	userService := services.NewUserService(userRepo, opts.Logger)
	conversationService := services.NewConversationService(conversationRepo, opts.Logger)
	messageService := services.NewMessageService(messageRepo, conversationService, registry, events, opts.Logger)

	authMW := middleware.NewAuthMiddleware(opts.Codec, userService)
	rateLimitMW := middleware.NewRateLimitMiddleware(redisService, opts.Logger)

	// A typed nil *RedisService must not reach the interface field, or the
	// handler's nil check would pass and presence calls would panic.
	var presence ws.Presence
	if redisService != nil {
		presence = redisService
	}
	wsHandler := ws.NewHandler(opts.Codec, userService, registry, conversationService, presence, opts.Logger)

	return &Router{
		engine:              engine,
		wsHandler:           wsHandler,
		authHandler:         handlers.NewAuthHandler(userService, opts.Codec, opts.OAuth, opts.ClientURL, opts.Logger),
		userHandler:         handlers.NewUserHandler(userService, opts.Prod),
		conversationHandler: handlers.NewConversationHandler(conversationService),
		messageHandler:      handlers.NewMessageHandler(messageService),
		rateLimitMW:         rateLimitMW,
		authMW:              authMW,
		prod:                opts.Prod,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api")

	// WebSocket endpoint authenticates through query-string tokens since the
	// browser WebSocket API cannot set headers.
	api.GET("/ws", r.wsHandler.HandleWebSocket)

	// Auth routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.GET("/google", r.authHandler.GoogleLogin)
		authRoutes.GET("/google/callback", r.authHandler.GoogleCallback)
		authRoutes.GET("/me", r.authMW.OptionalAuth(), r.authHandler.Me)
		authRoutes.POST("/logout", r.authMW.RequireAuth(), r.authHandler.Logout)
	}

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/feed", r.userHandler.Feed)
			users.PUT("/current", r.userHandler.UpdateCurrent)
			users.GET("/:id", r.userHandler.GetByID)
		}

		conversations := auth.Group("/conversations")
		conversations.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			conversations.GET("/", r.conversationHandler.List)
			conversations.POST("/", r.conversationHandler.Create)
		}

		messages := auth.Group("/messages")
		messages.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			messages.GET("/:userId", r.messageHandler.List)
			messages.POST("/", r.messageHandler.Create)
		}
	}

	if !r.prod {
		api.POST("/users/dev", r.userHandler.DevCreate)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
