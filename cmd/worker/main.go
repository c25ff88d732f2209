package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tubefeed/video-recommender-go/internal/catalog"
	"github.com/tubefeed/video-recommender-go/internal/config"
	"github.com/tubefeed/video-recommender-go/internal/queue"
	"github.com/tubefeed/video-recommender-go/internal/recommend"
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

	log.Info("feedback worker starting",
		zap.Int("concurrency", cfg.Recommender.WorkerConcurrency),
	)

	mongo, err := store.NewMongo(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	log.Info("document store connected", zap.String("database", cfg.Mongo.Database))

	videos := store.NewVideoStore(mongo)
	ledger := store.NewLedgerStore(mongo)
	catalogFactory := catalog.NewFactory(cfg.YouTube.CallTimeout)

	ingestor := recommend.NewIngestor(videos, ledger, log)
	expander := recommend.NewExpander(videos, ledger, nil, log)
	service := recommend.NewService(videos, ledger, ingestor, expander, recommend.Options{
		SubscriptionSampleSize: cfg.Recommender.SubscriptionSampleSize,
		ChannelVideoSampleSize: cfg.Recommender.ChannelVideoSampleSize,
		SearchWindow:           cfg.Recommender.SearchWindow,
	}, log)

	handler := queue.NewFeedbackHandler(service, catalogFactory, log)
	server := queue.NewServer(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Recommender.WorkerConcurrency, handler, log)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting task processing server")
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		server.Stop()
		log.Info("feedback worker stopped gracefully")
	}
}
