// Command compras-api serves the purchases demo backend.
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

	"github.com/consulta-ai/consulta/internal/compras"
	"github.com/consulta-ai/consulta/internal/config"
	"github.com/consulta-ai/consulta/internal/observability"
)

func main() {
	_ = godotenv.Load()

	logger := observability.NewLogger(observability.LogConfig{
		Level:       envOr("LOG_LEVEL", "info"),
		Format:      envOr("LOG_FORMAT", "json"),
		ServiceName: "compras-api",
	})

	port, err := strconv.Atoi(envOr("COMPRAS_PORT", "8200"))
	if err != nil {
		logger.Fatal().Err(err).Msg("COMPRAS_PORT inválido")
	}

	// DATABASE_URL selects the driver; the default is the development
	// SQLite file.
	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal().Err(err).Msg("configuración inválida")
	}

	store, err := compras.Open(cfg.Compras.Driver, cfg.Compras.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("abrir base de datos")
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migrar esquema")
	}

	empty, err := store.IsEmpty(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("comprobar datos")
	}
	if empty {
		logger.Info().Int("rows", compras.SeedRowCount()).Msg("seeding demo data")
		if err := store.Seed(ctx, nil); err != nil {
			logger.Fatal().Err(err).Msg("cargar datos de demostración")
		}
	}

	handler := compras.NewHandler(store, logger)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("driver", cfg.Compras.Driver).Msg("compras-api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
