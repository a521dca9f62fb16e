package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ruuvari-collector/internal/config"
	"ruuvari-collector/internal/event/application/dispatch"
	"ruuvari-collector/internal/event/application/forward"
	"ruuvari-collector/internal/event/infrastructure/influx"
	"ruuvari-collector/internal/event/infrastructure/postgres"
	"ruuvari-collector/internal/event/infrastructure/redis"
	"ruuvari-collector/internal/event/interfaces/ingest"
	"ruuvari-collector/internal/observability/logging"
	"ruuvari-collector/internal/observability/metrics"
)

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingest HTTP listener",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	metrics.Init()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	dispatcher, err := dispatch.NewDefault(cfg.Dispatch.Order, loc)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg.Forward, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	var sink forward.Sink
	if len(sinks) > 0 {
		sink = forward.NewMultiSink(sinks...)
	}
	ingestHandler, err := ingest.NewIngestHandler(dispatcher, sink, logger,
		ingest.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      loggingMiddleware(newMux(cfg.HTTP.IngestPath, ingestHandler), logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("ingest_path", cfg.HTTP.IngestPath).
			Strs("order", dispatcher.Order()).
			Str("timezone", loc.String()).
			Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func newMux(ingestPath string, ingestHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(ingestPath, ingestHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func buildSinks(ctx context.Context, cfg config.ForwardConfig, logger zerolog.Logger) ([]forward.Sink, func(), error) {
	var (
		sinks   []forward.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Log {
		sinks = append(sinks, forward.NewLoggingSink(logger))
	}

	if cfg.Postgres.Enabled() {
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		repo, err := postgres.NewEventRepository(db, postgres.WithTable(cfg.Postgres.Table))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		metrics.RegisterEventStore(db, repo.Table(), logger)
		sinks = append(sinks, repo)
	}

	if cfg.Influx.Enabled() {
		writer, err := influx.NewWriter(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, writer.Close)
		sinks = append(sinks, writer)
	}

	if cfg.Redis.Enabled() {
		client, err := redis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		publisher, err := redis.NewPublisher(client, cfg.Redis.Channel)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, publisher)
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info().Strs("sinks", names).Msg("forwarding configured")
	return sinks, closeAll, nil
}
