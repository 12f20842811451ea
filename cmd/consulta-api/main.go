// Command consulta-api serves the natural-language query router over HTTP.
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

	"github.com/joho/godotenv"

	"github.com/consulta-ai/consulta/internal/backend"
	"github.com/consulta-ai/consulta/internal/cache"
	"github.com/consulta-ai/consulta/internal/config"
	"github.com/consulta-ai/consulta/internal/dispatch"
	"github.com/consulta-ai/consulta/internal/observability"
	"github.com/consulta-ai/consulta/internal/payload"
	"github.com/consulta-ai/consulta/internal/version"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta del fichero de configuración YAML")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuración inválida: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("builder_mode", cfg.Builder.Mode).
		Msg("starting consulta-api")

	answers := newAnswerCache(cfg, logger)
	defer answers.Close()

	builder := newBuilder(cfg, logger)

	lib := backend.NewClient("biblioteca", cfg.Backends.BibliotecaURL, cfg.Backends.CallTimeout, logger)
	comp := backend.NewClient("compras", cfg.Backends.ComprasURL, cfg.Backends.CallTimeout, logger)
	exec := backend.NewExecutor(lib, comp, logger)

	dispatcher := dispatch.NewDispatcher(builder, exec, answers, cfg.Cache.TTL, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(dispatcher, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
}

// newAnswerCache builds the configured answer cache, degrading to the
// in-memory cache when Redis is unreachable.
func newAnswerCache(cfg *config.Config, logger *observability.Logger) cache.Client {
	if cfg.Cache.Driver == "redis" {
		rc, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err == nil {
			logger.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("answer cache on redis")
			return rc
		}
		logger.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
	}
	return cache.NewMemoryClient(cfg.Cache.MaxEntries)
}

// newBuilder builds the configured payload builder. Generative mode
// requires a completer; the deterministic fallback inside the generative
// builder covers model failures at runtime.
func newBuilder(cfg *config.Config, logger *observability.Logger) payload.Builder {
	if cfg.Builder.Mode != "generative" {
		return payload.NewDeterministicBuilder()
	}

	completer := payload.NewOpenAICompleter(payload.OpenAIConfig{
		APIKey:  cfg.Builder.OpenAI.APIKey,
		BaseURL: cfg.Builder.OpenAI.BaseURL,
		Model:   cfg.Builder.OpenAI.Model,
		Timeout: cfg.Builder.OpenAI.Timeout,
	})

	logger.Info().Str("model", cfg.Builder.OpenAI.Model).Msg("generative payload builder enabled")
	return payload.NewGenerativeBuilder(completer, logger)
}
