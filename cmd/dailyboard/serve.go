package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/dailyboard/internal/config"
	"github.com/dukerupert/dailyboard/internal/server"
	"github.com/dukerupert/dailyboard/internal/tracker"
	ws "github.com/dukerupert/dailyboard/internal/websocket"
)

func newServeCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live update socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&flags.port, "port", "", "listen port (overrides DAILYBOARD_PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	hub := ws.NewHub(logger.With("component", "websocket"))
	stopWatch := hub.Watch(a.docs)
	defer stopWatch()

	srv := server.New(a.svc, hub, cfg.SearchRateLimit, logger)

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	go srv.RateLimiter().RunCleanup(bgCtx)

	refresher := tracker.NewRefresher(a.svc, cfg.RefreshInterval)
	refresher.Start(bgCtx)
	if cfg.RefreshInterval > 0 {
		logger.Info("background refresh enabled", "interval", cfg.RefreshInterval)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("dailyboard listening", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	logger.Info("shutting down")
	refresher.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
