// Package main wires together the claim-verification service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/api"
	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/clock/system"
	"github.com/veritaslabs/veritas/internal/config"
	"github.com/veritaslabs/veritas/internal/extract"
	"github.com/veritaslabs/veritas/internal/id/uuid"
	"github.com/veritaslabs/veritas/internal/logging"
	"github.com/veritaslabs/veritas/internal/metrics"
	"github.com/veritaslabs/veritas/internal/nlp"
	"github.com/veritaslabs/veritas/internal/pipeline"
	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/progress/sinks"
	memqueue "github.com/veritaslabs/veritas/internal/queue/memory"
	"github.com/veritaslabs/veritas/internal/search"
	"github.com/veritaslabs/veritas/internal/store"
	memstore "github.com/veritaslabs/veritas/internal/store/memory"
	redisstore "github.com/veritaslabs/veritas/internal/store/redis"
	"github.com/veritaslabs/veritas/internal/verdict"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.New()

	jobStore, closeStore, err := buildStore(ctx, cfg, clock)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	hub := progress.NewHub(
		progress.Config{Logger: logger.Named("hub")},
		sinks.NewLogSink(logger.Named("events")),
		sinks.NewPrometheusSink(),
		sinks.NewStatsSink(jobStore, logger.Named("stats")),
	)

	queue := memqueue.NewQueue(cfg.Pipeline.QueueDepth)

	analyzer := nlp.NewAnalyzer(nlp.NewProseTagger(), logger.Named("nlp"))
	fetcher := extract.NewFetcher(extract.FetchConfig{
		Timeout:    time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Extractor.MaxRetries,
	}, logger.Named("fetcher"))
	extractor := extract.New(extract.Config{
		MinStructuredChars: cfg.Extractor.MinStructuredChars,
		MinHeuristicChars:  cfg.Extractor.MinHeuristicChars,
		MaxContentChars:    cfg.Extractor.MaxContentChars,
	}, fetcher, clock, logger.Named("extract"))
	searchClient := search.New(search.Config{
		APIKey:     cfg.Search.APIKey,
		BaseURL:    cfg.Search.BaseURL,
		MaxResults: cfg.Search.MaxResults,
		Timeout:    time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
	}, logger.Named("search"))
	reasoner, err := verdict.New(verdict.Config{
		APIKey:    cfg.Reasoning.APIKey,
		BaseURL:   cfg.Reasoning.BaseURL,
		Model:     cfg.Reasoning.Model,
		MaxTokens: cfg.Reasoning.MaxTokens,
		Timeout:   time.Duration(cfg.Reasoning.TimeoutSeconds) * time.Second,
	}, logger.Named("verdict"))
	if err != nil {
		logger.Fatal("reasoning client init failed", zap.Error(err))
	}

	worker := pipeline.NewWorker(jobStore, analyzer, searchClient, extractor, reasoner,
		hub, clock, logger.Named("worker"))
	dispatch := pipeline.NewDispatcher(queue, worker, cfg.Pipeline.Workers, logger.Named("dispatcher"))

	apiServer := api.NewServer(jobStore, queue, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	dispatch.Start(ctx)

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	dispatch.Wait()
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Warn("event hub close error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// buildStore selects the job store backend from configuration.
func buildStore(ctx context.Context, cfg config.Config, clock claims.Clock) (store.JobStore, func(), error) {
	switch cfg.Store.Provider {
	case "redis":
		rs, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, clock)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		return rs, func() {
			if err := rs.Close(); err != nil {
				zap.L().Warn("redis close error", zap.Error(err))
			}
		}, nil
	case "memory":
		return memstore.New(clock), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}
}
