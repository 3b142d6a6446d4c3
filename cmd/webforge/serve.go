package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/webforge/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

The server exposes accounts, credits, referrals, projects, editor sessions
and support tickets as JSON over HTTP. Callers identify themselves with the
X-User-ID header.

Examples:
  webforge serve
  webforge serve --addr 0.0.0.0:8080
  WEBFORGE_RATE_LIMIT_ENABLED=false webforge serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(a.svc, server.Config{
		Addr:         addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		CORSOrigin:   a.cfg.Server.CORSOrigin,
		SiteURL:      a.cfg.SiteURL,
	}, a.logger.With().Str("component", "server").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.svc.Throttle != nil {
		go a.svc.Throttle.Run(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Printf("Webforge API listening on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown")
	}
	st := a.svc.Projects.CacheStats()
	a.logger.Info().
		Int("entries", st.Len).
		Int64("evictions", st.Evictions).
		Int64("invalidations", st.Invalidations).
		Float64("hit_rate", st.HitRate).
		Msg("project cache")

	// Pending autosaves are dropped; only completed saves are durable
	return a.svc.Editor.Shutdown(shutdownCtx, false)
}
