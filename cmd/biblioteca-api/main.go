// Command biblioteca-api serves the library demo backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/consulta-ai/consulta/internal/biblioteca"
	"github.com/consulta-ai/consulta/internal/observability"
)

func main() {
	_ = godotenv.Load()

	logger := observability.NewLogger(observability.LogConfig{
		Level:       envOr("LOG_LEVEL", "info"),
		Format:      envOr("LOG_FORMAT", "json"),
		ServiceName: "biblioteca-api",
	})

	port, err := strconv.Atoi(envOr("BIBLIOTECA_PORT", "8100"))
	if err != nil {
		logger.Fatal().Err(err).Msg("BIBLIOTECA_PORT inválido")
	}

	handler := biblioteca.NewHandler(biblioteca.NewSeededRepository(), logger)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("biblioteca-api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
