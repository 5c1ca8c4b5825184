package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kawaii-gallery/backend/internal/auth"
	"github.com/kawaii-gallery/backend/internal/cache"
	"github.com/kawaii-gallery/backend/internal/config"
	"github.com/kawaii-gallery/backend/internal/database"
	"github.com/kawaii-gallery/backend/internal/engagement"
	"github.com/kawaii-gallery/backend/internal/feather"
	"github.com/kawaii-gallery/backend/internal/handlers"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/metrics"
	"github.com/kawaii-gallery/backend/internal/middleware"
	"github.com/kawaii-gallery/backend/internal/notifications"
	"github.com/kawaii-gallery/backend/internal/ranking"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("=== kawaii-gallery backend starting ===")

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	loc, err := cfg.RankingLocation()
	if err != nil {
		logger.Log.Fatal("Failed to resolve ranking timezone", zap.Error(err))
	}

	oauthConfig, err := config.LoadOAuthConfig()
	if err != nil {
		logger.Log.Fatal("Failed to load OAuth configuration", zap.Error(err))
	}

	metrics.Initialize()

	authService := auth.NewService(database.DB, cfg.JWTSecret, cfg.JWTExpiry, oauthConfig.KakaoConfig, config.KakaoUserInfoURL)
	notifier := notifications.NewService(database.DB, os.Getenv("FCM_SERVER_KEY"))
	dedup := ranking.NewDedupWindow(redisClient, loc)
	leaderboard := ranking.NewLeaderboard(redisClient, loc)
	engagementService := engagement.NewService(database.DB, dedup, leaderboard, notifier)
	ledger := feather.NewLedger(database.DB)

	h := handlers.NewHandlers(authService, engagementService, ledger, notifier, cfg)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "kawaii-gallery-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.GET("/kakao", h.KakaoLogin)
			authGroup.GET("/kakao/callback", h.KakaoCallback)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
		}

		// Public reads
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.GET("/posts/:id/comments", h.ListComments)
		api.GET("/ranking", h.GetDailyRanking)
		api.GET("/users/:id", h.GetUser)

		authed := api.Group("")
		authed.Use(h.AuthMiddleware())
		{
			posts := authed.Group("/posts")
			posts.Use(middleware.RedisRateLimitMiddleware(60, 1*time.Minute))
			posts.POST("", h.CreatePost)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/like", h.ToggleLike)
			posts.POST("/:id/comments", h.CreateComment)

			authed.DELETE("/comments/:id", h.DeleteComment)

			me := authed.Group("/me")
			me.PUT("", h.UpdateMe)
			me.DELETE("", h.DeleteMe)
			me.GET("/feather", h.GetFeather)
			me.POST("/fcm-token", h.RegisterFCMToken)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
