package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-api/internal/adapters/kafka"
	"chat-api/internal/api/routes"
	"chat-api/internal/config"
	"chat-api/internal/database"
	"chat-api/internal/services"
	"chat-api/internal/token"
	"chat-api/internal/ws"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	logger.Info("Starting chat server")

	codec, err := token.NewCodec(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		logger.Error("Failed to build token codec", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it rate limiting and presence degrade to
	// no-ops instead of blocking startup.
	var redisService *services.RedisService
	if cfg.Redis.URI != "" {
		redisClient, err := database.NewRedisConnection(cfg.Redis.URI)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		redisService = services.NewRedisService(redisClient)
		logger.Info("Redis connected")
	} else {
		logger.Info("Redis not configured, rate limiting and presence disabled")
	}

	// Kafka is optional as well; events are best effort.
	var events *services.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.InitProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.Error("Failed to connect to Kafka", "error", err)
			os.Exit(1)
		}
		events = services.NewEventPublisher(producer, cfg.Kafka.Topic, logger)
		defer events.Close()
		logger.Info("Kafka producer ready", "topic", cfg.Kafka.Topic)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.OAuth.GoogleClientID,
		ClientSecret: cfg.OAuth.GoogleClientSecret,
		RedirectURL:  cfg.Server.ServerURL + "/api/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	registry := ws.NewRegistry(logger)

	router := routes.NewRouter(db, registry, redisService, events, routes.Options{
		Codec:     codec,
		OAuth:     oauthConfig,
		ClientURL: cfg.Server.ClientURL,
		Prod:      cfg.Server.Prod,
		Logger:    logger,
	})
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry.CloseAll()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
