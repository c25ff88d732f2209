package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/config"
	"github.com/tubefeed/video-recommender-go/internal/handler"
	"github.com/tubefeed/video-recommender-go/internal/metrics"
	"github.com/tubefeed/video-recommender-go/internal/middleware"
	"github.com/tubefeed/video-recommender-go/internal/queue"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
	"github.com/tubefeed/video-recommender-go/internal/session"
	"github.com/tubefeed/video-recommender-go/internal/store"
	"github.com/tubefeed/video-recommender-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	mongo, err := store.NewMongo(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	log.Info("document store connected", zap.String("database", cfg.Mongo.Database))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	videos := store.NewVideoStore(mongo)
	ledger := store.NewLedgerStore(mongo)
	sessions := session.NewStore(redisClient, cfg.Session.TTL)
	catalogFactory := catalog.NewFactory(cfg.YouTube.CallTimeout)

	ingestor := recommend.NewIngestor(videos, ledger, log)
	expander := recommend.NewExpander(videos, ledger, nil, log)
	service := recommend.NewService(videos, ledger, ingestor, expander, recommend.Options{
		SubscriptionSampleSize: cfg.Recommender.SubscriptionSampleSize,
		ChannelVideoSampleSize: cfg.Recommender.ChannelVideoSampleSize,
		SearchWindow:           cfg.Recommender.SearchWindow,
	}, log)

	queueClient := queue.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	defer queueClient.Close()

	router := buildRouter(cfg, log, mongo, redisClient, sessions, catalogFactory, service, queueClient)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				log.Error("failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		log.Info("server stopped gracefully")
	}
}

func buildRouter(
	cfg *config.Config,
	log *zap.Logger,
	mongo *store.Mongo,
	redisClient *redis.Client,
	sessions *session.Store,
	catalogFactory catalog.Factory,
	service *recommend.Service,
	queueClient *queue.Client,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), metrics.GinMiddleware())

	healthHandler := handler.NewHealthHandler(map[string]func(context.Context) error{
		"mongo": mongo.Ping,
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})
	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	sessionHandler := handler.NewSessionHandler(service, sessions, catalogFactory, cfg.Session.CookieName, cfg.Session.CookieSecure, log)
	feedHandler := handler.NewFeedHandler(service, sessions, queueClient, catalogFactory, cfg.Recommender.SearchWindow, log)
	settingsHandler := handler.NewSettingsHandler(service, log)
	adminHandler := handler.NewAdminHandler(service, log)

	resolver := middleware.NewSessionResolver(sessions, cfg.Session.CookieName, log)
	api := router.Group("/api/v1", resolver.Middleware())
	api.POST("/session", sessionHandler.Login)
	api.DELETE("/session", sessionHandler.Logout)
	api.GET("/feed", feedHandler.GetFeed)
	api.POST("/feed/click", feedHandler.Click)
	api.POST("/search", feedHandler.Search)
	api.POST("/reset", feedHandler.Reset)
	api.PUT("/settings", settingsHandler.Update)
	api.GET("/settings", settingsHandler.Get)

	apiKeys := middleware.NewAPIKeyAuth(cfg.Admin.APIKeys, log)
	admin := api.Group("/admin", apiKeys.Middleware())
	admin.POST("/verify", adminHandler.Verify)

	return router
}
