package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/catalog"
	"github.com/shoptalk-ai/shoptalk/internal/config"
	"github.com/shoptalk-ai/shoptalk/internal/domain"
	logpkg "github.com/shoptalk-ai/shoptalk/internal/logger"
	"github.com/shoptalk-ai/shoptalk/internal/metrics"
	chiTransport "github.com/shoptalk-ai/shoptalk/internal/transport/chi"
	"github.com/shoptalk-ai/shoptalk/internal/transport/crossencoder"
	"github.com/shoptalk-ai/shoptalk/internal/transport/llm"
	openaiEmb "github.com/shoptalk-ai/shoptalk/internal/transport/openai"
	answeruc "github.com/shoptalk-ai/shoptalk/internal/usecase/answer"
	embeddinguc "github.com/shoptalk-ai/shoptalk/internal/usecase/embedding"
	healthuc "github.com/shoptalk-ai/shoptalk/internal/usecase/health"
	parseuc "github.com/shoptalk-ai/shoptalk/internal/usecase/parse"
	rerankuc "github.com/shoptalk-ai/shoptalk/internal/usecase/rerank"
	searchuc "github.com/shoptalk-ai/shoptalk/internal/usecase/search"
	"github.com/shoptalk-ai/shoptalk/internal/vectorstore"
	memorystore "github.com/shoptalk-ai/shoptalk/internal/vectorstore/memory"
	redisstore "github.com/shoptalk-ai/shoptalk/internal/vectorstore/redis"
	"github.com/shoptalk-ai/shoptalk/internal/version"
)

func main() {
	// .env is optional, for local development only
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shoptalk API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Strings("store_addrs", cfg.Store.Addrs),
	)

	// Create vector store based on driver
	var store vectorstore.Store
	switch cfg.Store.Driver {
	case "memory":
		store, err = memorystore.NewStore(cfg.Embedding.Dimensions)
	case "redis", "valkey":
		store, err = redisstore.NewStore(redisstore.Config{
			Addrs:      cfg.Store.Addrs,
			Password:   cfg.Store.Password,
			KeyPrefix:  cfg.Store.KeyPrefix,
			Dimensions: cfg.Embedding.Dimensions,
			Driver:     cfg.Store.Driver,
			Logger:     logger,
		})
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store", zap.String("driver", store.Driver()))

	if rs, ok := store.(*redisstore.Store); ok {
		if err := rs.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure search index", zap.Error(err))
		}
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Build embedder chains — composition root
	queryEmbedder, healthChecker := buildEmbedder(cfg.Embedding, domain.QueryInstruction, logger)
	docEmbedder, _ := buildEmbedder(cfg.Embedding, domain.DocumentInstruction, logger)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.String("fallback_model", cfg.Embedding.FallbackModel),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	if cfg.Store.SeedPath != "" {
		products, err := catalog.Load(cfg.Store.SeedPath)
		if err != nil {
			logger.Fatal("Failed to load catalog", zap.Error(err))
		}
		if err := catalog.Index(ctx, store, docEmbedder, products, logger); err != nil {
			logger.Fatal("Failed to index catalog", zap.Error(err))
		}
	} else if cfg.Store.Driver == "memory" {
		logger.Warn("Memory store without store.seed_path starts empty")
	}

	// LLM collaborator (shared by parse and summarize)
	llmClient := llm.NewClient(&llm.Config{
		APIKey:             cfg.LLM.APIKey,
		BaseURL:            cfg.LLM.BaseURL,
		ParseModel:         cfg.LLM.ParseModel,
		SummaryModel:       cfg.LLM.SummaryModel,
		SummaryTemperature: cfg.LLM.SummaryTemperature,
		Logger:             logger,
	})

	// Cross-encoder scoring client; empty URL disables reranking
	var scorer rerankuc.Scorer
	if cfg.Rerank.URL != "" {
		scorer = crossencoder.NewClient(&crossencoder.Config{
			URL:     cfg.Rerank.URL,
			Model:   cfg.Rerank.Model,
			Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
	} else {
		logger.Info("Reranking disabled, rerank.url is empty")
	}

	// Use case services
	parseSvc := parseuc.New(llmClient, time.Duration(cfg.LLM.ParseTimeoutSec)*time.Second, logger)
	rerankSvc := rerankuc.New(scorer, time.Duration(cfg.Rerank.TimeoutSec)*time.Second, logger)
	answerSvc := answeruc.New(parseSvc, queryEmbedder, store, rerankSvc, llmClient, answeruc.Config{
		DefaultK:       cfg.Pipeline.DefaultK,
		MaxK:           cfg.Pipeline.MaxK,
		MinPoolSize:    cfg.Pipeline.MinPoolSize,
		MaxRerankPool:  cfg.Pipeline.MaxRerankPool,
		GlobalTimeout:  time.Duration(cfg.Pipeline.GlobalTimeoutSec) * time.Second,
		SummaryTimeout: time.Duration(cfg.LLM.SummarizeTimeoutSec) * time.Second,
	}, logger)
	searchSvc := searchuc.New(queryEmbedder, store, cfg.Pipeline.MaxK, logger)
	healthSvc := healthuc.New(store, healthChecker, logger)

	server := chiTransport.NewServer(answerSvc, searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain:
// provider -> fallback (optional) -> instrumented -> instruction.
// The returned health checker probes the primary provider directly.
func buildEmbedder(cfg config.EmbeddingConfig, instruction string, logger *zap.Logger) (domain.Embedder, domain.HealthChecker) {
	primary := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = primary
	if cfg.FallbackModel != "" {
		fallback := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.FallbackModel,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		})
		embedder = embeddinguc.NewFallbackEmbedder(primary, fallback, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Model, logger)

	return domain.NewInstructionEmbedder(embedder, instruction), primary
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
