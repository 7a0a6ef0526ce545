package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sheikhrachel/go-gol-boards/api"
	"github.com/sheikhrachel/go-gol-boards/idcodec"
	"github.com/sheikhrachel/go-gol-boards/observability"
	"github.com/sheikhrachel/go-gol-boards/service"
	"github.com/sheikhrachel/go-gol-boards/storage"
	"github.com/sheikhrachel/go-gol-boards/utils"
)

var (
	servePort int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the boards HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if servePort > 0 {
				config.Server.Port = servePort
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, config, slog.Default())
		},
	}
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides the config)")
}

// runServer wires storage, workflows and the router, then serves until ctx is done
func runServer(ctx context.Context, cfg utils.Config, logger *slog.Logger) error {
	shutdownTracer, err := observability.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	storageCfg := storage.ConfigFrom(cfg.Storage, logger)
	store, err := storage.Open(storageCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close board store", "error", err)
		}
	}()

	codec, err := idcodec.New(cfg.HashIDs.Salt, cfg.HashIDs.MinHashLength)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	boards := service.New(store, codec, metrics, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandlers(boards, cfg.Board.MaxAttempts), metrics, cfg.Telemetry.ServiceName, logger)

	srv := &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("boards API listening", "addr", srv.Addr, "in_memory", storageCfg.InMemory)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "[runServer] server failed")
	case <-ctx.Done():
	}

	logger.Info("shutting down boards API", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "[runServer] graceful shutdown failed")
	}
	return nil
}
