package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facturaIA/identity-ocr-service/api"
	"github.com/facturaIA/identity-ocr-service/internal/auth"
	"github.com/facturaIA/identity-ocr-service/internal/db"
	"github.com/facturaIA/identity-ocr-service/internal/idparse"
	"github.com/facturaIA/identity-ocr-service/internal/logger"
	"github.com/facturaIA/identity-ocr-service/internal/metrics"
	"github.com/facturaIA/identity-ocr-service/internal/models"
	"github.com/facturaIA/identity-ocr-service/internal/reftable"
	"github.com/facturaIA/identity-ocr-service/internal/session"
	"github.com/facturaIA/identity-ocr-service/internal/storage"
)

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve identity field extraction over HTTP",
		Long: `server runs the identity OCR service. Clients open a session per document,
post OCR text observations to it and commit the confirmed record.

Configuration is read from --config, then overridden by environment variables
(PORT, HOST, NATIONALITY_TABLE, NATIONALITY_OUTPUT, PARSER_CURRENT_YEAR,
SESSION_TTL, AUTH_ENABLED, LOG_LEVEL). DATABASE_URL, MINIO_* and JWT_SECRET
configure the optional infrastructure.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "identity-ocr-service: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	config, err := models.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(config.Log.Level, config.Log.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	if config.Auth.Enabled {
		if err := auth.Init(os.Getenv("JWT_SECRET"), config.Auth.TokenTTL); err != nil {
			return errors.Wrap(err, "failed to initialize auth")
		}
		log.Info("JWT authentication initialized")
	} else {
		log.Warn("authentication disabled, all routes are public")
	}

	// Database and object storage are optional
	if err := db.Init(log); err != nil {
		if !errors.Is(err, db.ErrNoDatabase) {
			log.Warn("database not available, records will not be persisted", zap.Error(err))
		}
	} else {
		defer db.Close()
	}
	if err := storage.Init(log); err != nil && !errors.Is(err, storage.ErrNoStorage) {
		log.Warn("object storage not available, observations will not be archived", zap.Error(err))
	}

	table, err := reftable.Load(config.Parser.NationalityTable)
	if err != nil {
		return err
	}
	for _, c := range reftable.Collisions(table) {
		log.Warn("nationality rows collide, text for the later row may resolve to the earlier one",
			zap.String("earlier", c.A), zap.String("later", c.B), zap.Float64("score", c.Score))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sessions := session.NewStore(idparse.Config{
		CurrentYear:   config.Parser.CurrentYear,
		Nationalities: table,
		Output:        config.Parser.Output,
	}, config.Session.TTL, session.WithLogger(log), session.WithMetrics(m))

	handler := api.NewHandler(config, api.Deps{
		Sessions:      sessions,
		Nationalities: table,
		Metrics:       m,
		Gatherer:      reg,
		Logger:        log,
	})

	var root http.Handler = handler.SetupRoutes()
	if config.Auth.Enabled {
		root = auth.JWTMiddleware(root)
	}

	go sessions.Run(ctx, config.Session.SweepInterval, func(expired []session.Snapshot) {
		handler.PurgeObservations(context.Background(), expired)
	})

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	log.Info("starting identity OCR service",
		zap.String("version", api.Version),
		zap.String(logger.FieldAddr, addr),
		zap.Bool("database", db.Pool != nil),
		zap.Bool("storage", storage.Client != nil),
		zap.Int("nationalities", len(table)),
		zap.Stringer("output", config.Parser.Output))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}
