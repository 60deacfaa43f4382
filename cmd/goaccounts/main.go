// Command goaccounts serves the account API.
//
// Configuration comes from goaccounts.yaml (searched in /etc/goaccounts,
// $HOME/.goaccounts and the working directory) and GOACCOUNTS_* environment
// variables. With GOACCOUNTS_DEV_MODE=true and no Redis address an
// embedded miniredis is started, which is meant for local development only.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/MrEthical07/goAccounts/api"
	otelexport "github.com/MrEthical07/goAccounts/metrics/export/otel"
	"github.com/MrEthical07/goAccounts/metrics/export/prometheus"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.opentelemetry.io/otel"
)

func main() {
	cfg, err := loadConfig("/etc/goaccounts/", "$HOME/.goaccounts", ".")
	if err != nil {
		stdLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.LogLevel, cfg.LogPretty)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("goaccounts stopped")
	}
}

func newLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func run(cfg *serverConfig, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, closeRedis, err := openRedis(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	builder := goAccounts.New().
		WithConfig(cfg.engineConfig()).
		WithRedis(rdb).
		WithDB(db).
		WithLogger(logger)

	if cfg.AuditEnabled {
		sink, closeSink, err := auditSink(cfg.AuditFile, logger)
		if err != nil {
			return err
		}
		defer closeSink()
		builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	if cfg.BootstrapUsername != "" {
		bootstrap(ctx, engine, cfg, logger)
	}

	if cfg.OTelMetrics {
		exp, err := otelexport.NewExporter(otel.GetMeterProvider().Meter("github.com/MrEthical07/goAccounts"), engine)
		if err != nil {
			return fmt.Errorf("otel exporter: %w", err)
		}
		defer exp.Close()
	}

	opts := api.Options{Logger: logger, Bearer: cfg.Bearer}
	if cfg.MetricsEnabled {
		opts.Metrics = prometheus.NewExporter(engine).Handler()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(engine, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("hasher", engine.HasherAlgorithm()).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Uint64("audit_dropped", engine.AuditDropped()).Msg("stopped")
	return nil
}

func openRedis(cfg *serverConfig, logger zerolog.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.RedisAddr
	if addr == "" {
		if !cfg.DevMode {
			return nil, nil, errors.New("GOACCOUNTS_REDIS_ADDR is required outside dev mode")
		}
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		logger.Warn().Str("addr", mr.Addr()).Msg("dev mode: using embedded miniredis")
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return rdb, func() {
			_ = rdb.Close()
			mr.Close()
		}, nil
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return rdb, func() { _ = rdb.Close() }, nil
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection serializes writes instead
	// of surfacing SQLITE_BUSY.
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := user.CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// auditSink writes JSON lines to path, or logs events when path is empty.
func auditSink(path string, logger zerolog.Logger) (goAccounts.AuditSink, func(), error) {
	if path == "" {
		return goAccounts.NewLoggerSink(logger), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit file: %w", err)
	}
	return goAccounts.NewJSONWriterSink(f), func() { _ = f.Close() }, nil
}

func bootstrap(ctx context.Context, engine *goAccounts.Engine, cfg *serverConfig, logger zerolog.Logger) {
	id, err := engine.BootstrapSuperAdmin(ctx, cfg.BootstrapUsername, cfg.BootstrapPassword)
	switch {
	case errors.Is(err, goAccounts.ErrSuperAdminExists):
		logger.Info().Msg("super admin already present, bootstrap skipped")
	case err != nil:
		logger.Error().Err(err).Msg("super admin bootstrap failed")
	default:
		logger.Info().Str("user_id", id.String()).Str("username", cfg.BootstrapUsername).Msg("super admin created")
	}
}
