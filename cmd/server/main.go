package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/api"
	"github.com/jstittsworth/showdown-optimizer/internal/api/middleware"
	"github.com/jstittsworth/showdown-optimizer/internal/api/ws"
	"github.com/jstittsworth/showdown-optimizer/internal/services"
	"github.com/jstittsworth/showdown-optimizer/internal/store"
	"github.com/jstittsworth/showdown-optimizer/pkg/config"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.Init("", cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	gameStore := store.New(redisClient)

	hindsight := services.NewHindsightService(services.HindsightConfig{
		APIKey:                  cfg.OpenAIAPIKey,
		Model:                   cfg.OpenAIModel,
		RequestsPerMinute:       cfg.AIRateLimit,
		CircuitBreakerThreshold: cfg.CircuitBreakerThreshold,
	})
	if hindsight == nil {
		log.Info("Hindsight weight suggestions disabled (no OpenAI API key)")
	}

	hub := ws.NewHub()
	go hub.Run()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, gameStore, hub, hindsight, cfg)

	// WebSocket progress feed at root level, not under /api/v1
	router.GET("/ws", hub.HandleConnection)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
