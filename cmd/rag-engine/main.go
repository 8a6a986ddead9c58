package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenstack/lumen-rag/internal/api"
	"github.com/lumenstack/lumen-rag/internal/cache"
	"github.com/lumenstack/lumen-rag/internal/config"
	"github.com/lumenstack/lumen-rag/internal/engine"
	"github.com/lumenstack/lumen-rag/internal/grounding"
	"github.com/lumenstack/lumen-rag/internal/insights"
	"github.com/lumenstack/lumen-rag/internal/metrics"
	"github.com/lumenstack/lumen-rag/internal/repo"
	"github.com/lumenstack/lumen-rag/internal/services"
	"github.com/lumenstack/lumen-rag/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting rag-engine")

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NewMemoryProvider()
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("redis cache unavailable, using in-memory cache", slog.Any("error", err))
		} else {
			cacheProvider = provider
		}
	}
	defer cacheProvider.Close()

	completer := repo.NewOpenAICompleter(repo.CompletionOptions{
		BaseURL:     cfg.Clients.Completion.BaseURL,
		APIKey:      cfg.Clients.Completion.APIKey,
		Model:       cfg.Clients.Completion.Model,
		MaxTokens:   cfg.Clients.Completion.MaxTokens,
		Temperature: cfg.Clients.Completion.Temperature,
		Timeout:     cfg.Clients.Completion.Timeout,
	})

	weaviateRepo := repo.NewWeaviateRepo(
		cfg.Clients.Weaviate.Endpoint,
		cfg.Clients.Weaviate.APIKey,
		cfg.Clients.Weaviate.ForumClass,
		cfg.Clients.Weaviate.MessagingClass,
		cfg.Clients.Weaviate.Timeout,
		cacheProvider,
		cfg.Cache.SchemaTTL,
	)

	messageStore, err := repo.NewMessageStore(repo.MessageStoreConfig{
		Host:     cfg.Clients.Messages.Host,
		Port:     cfg.Clients.Messages.Port,
		User:     cfg.Clients.Messages.User,
		Password: cfg.Clients.Messages.Password,
		DBName:   cfg.Clients.Messages.DBName,
		SSLMode:  cfg.Clients.Messages.SSLMode,
	})
	if err != nil {
		logger.Error("failed to open message store", slog.Any("error", err))
		os.Exit(1)
	}
	defer messageStore.Close()

	heuristics, err := engine.LoadHeuristics(cfg.Heuristics.Path, logger)
	if err != nil {
		logger.Error("failed to load heuristics pack", slog.Any("error", err))
		os.Exit(1)
	}

	classifier := engine.NewClassifier(completer, heuristics, logger)
	optimizer := engine.NewOptimizer(completer, weaviateRepo, heuristics, logger)
	router := engine.NewRouter(
		weaviateRepo,
		messageStore,
		cfg.Retrieval.TopK,
		cfg.Retrieval.SimilarityThreshold,
		cfg.Retrieval.SearchTimeout,
		logger,
	)
	assembler := grounding.NewAssembler(
		grounding.NewTokenEstimator(),
		cfg.Retrieval.ContextTokenBudget,
		cfg.Retrieval.ExcerptLength,
		logger,
	)

	pipeline := engine.NewPipeline(
		logger,
		completer,
		classifier,
		optimizer,
		router,
		assembler,
		insights.NewAggregator(logger),
		heuristics,
		cfg.Retrieval.SimilarityThreshold,
		cfg.Retrieval.ExcerptLength,
	)

	ragService := services.NewRAGService(logger, pipeline)
	server := api.NewServer(cfg.Server.Address, ragService, logger)
	logger.Info("query api configured", slog.String("address", server.Address()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("rag-engine stopped")
}
