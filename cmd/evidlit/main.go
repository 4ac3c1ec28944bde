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
	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/config"
	dbRedis "github.com/evidlit/evidlit/internal/db/redis"
	logpkg "github.com/evidlit/evidlit/internal/logger"
	"github.com/evidlit/evidlit/internal/metrics"
	bundlerepo "github.com/evidlit/evidlit/internal/repository/bundle"
	historyrepo "github.com/evidlit/evidlit/internal/repository/history"
	"github.com/evidlit/evidlit/internal/transport/gateway"
	"github.com/evidlit/evidlit/internal/transport/httpx"
	openaiLLM "github.com/evidlit/evidlit/internal/transport/openai"
	"github.com/evidlit/evidlit/internal/usecase/health"
	historyuc "github.com/evidlit/evidlit/internal/usecase/history"
	pipelineuc "github.com/evidlit/evidlit/internal/usecase/pipeline"
	"github.com/evidlit/evidlit/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting evidlit API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("gateway", cfg.Gateway.BaseURL),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: time.Duration(cfg.Gateway.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	// Stage backend: the gateway runs all five stages unless an OpenAI key
	// moves the three LLM stages to a direct chat-completion client.
	var stages pipelineuc.Gateway = gw
	if cfg.OpenAI.APIKey != "" {
		stages = gw.WithSummarizer(openaiLLM.NewSummarizer(&openaiLLM.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  logger,
		}))
		logger.Info("LLM stages routed to OpenAI-compatible API",
			zap.String("model", cfg.OpenAI.Model),
		)
	}

	bundles := bundlerepo.New(store, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLDays)*24*time.Hour)
	histories := historyrepo.New(store, cfg.Cache.KeyPrefix)

	histSvc := historyuc.New(histories)
	pipeSvc := pipelineuc.New(stages, bundles, histSvc, nil, logger, pipelineuc.Config{
		Debounce:      time.Duration(cfg.Search.DebounceMillis) * time.Millisecond,
		AbortCooldown: time.Duration(cfg.Search.AbortCooldownMillis) * time.Millisecond,
		MaxResults:    cfg.Search.MaxResults,
	})
	healthSvc := health.New(store, gw)

	server := httpx.NewServer(pipeSvc, histSvc, bundles, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpx.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
