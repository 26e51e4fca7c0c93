// Command server is the entrypoint of the marketplace assistant backend.
//
// Startup order matters:
//  1. Load .env (best effort) and the environment config
//  2. Configure global logging
//  3. Set up OpenTelemetry (no-op when disabled)
//  4. Open SQLite and run migrations
//  5. Warm-load precomputed patterns and start the refresh loop
//  6. Build the Gin engine, register routes, and serve with graceful shutdown
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mktware/go-assist-backend/internal/assist"
	"github.com/mktware/go-assist-backend/internal/config"
	httpapi "github.com/mktware/go-assist-backend/internal/http"
	"github.com/mktware/go-assist-backend/internal/observability"
	"github.com/mktware/go-assist-backend/internal/repo"
	"github.com/mktware/go-assist-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title        Marketplace Assistant API
// @version      1.0
// @description  AI shopping-assistant backend: precomputed answers, rule matches, cached responses, and LLM completions behind a circuit breaker.
// @BasePath     /api
func main() {
	// Best-effort .env for local development; the environment always wins.
	if !sysutil.IsTruthy(os.Getenv("SKIP_DOTENV")) {
		_ = godotenv.Load()
	}

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Warm-load precomputed patterns; the matcher serves an empty set until
	// the first successful load, so a cold store is not fatal.
	patterns := assist.NewPrecomputedMatcher(nil)
	if rows, err := repo.ListActivePrecomputed(ctx, db); err != nil {
		log.Warn().Err(err).Msg("precomputed pattern warm-load failed")
	} else {
		patterns.SetPatterns(rows)
		log.Info().Int("patterns", patterns.Len()).Msg("precomputed patterns loaded")
	}
	go refreshPatterns(ctx, db, patterns, cfg.Assist.PatternRefresh)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, patterns, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// refreshPatterns periodically reloads the precomputed pattern set so edits
// in the store take effect without a restart. A failed reload keeps the
// previous set.
func refreshPatterns(ctx context.Context, db *gorm.DB, patterns *assist.PrecomputedMatcher, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rows, err := repo.ListActivePrecomputed(ctx, db)
			if err != nil {
				log.Warn().Err(err).Msg("precomputed pattern refresh failed")
				continue
			}
			patterns.SetPatterns(rows)
			log.Debug().Int("patterns", patterns.Len()).Msg("precomputed patterns refreshed")
		}
	}
}
