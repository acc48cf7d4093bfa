package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Veraticus/spice-ledger/internal/certs"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/httpapi"
	"github.com/Veraticus/spice-ledger/internal/metrics"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Start the HTTP server that receives chat events.

Endpoints:
  POST /events    one text or button event, answered with the reply
  GET  /reports   ?year=2024&month=3 (month 0 for the whole year)
  GET  /healthz   liveness and open session count
  GET  /metrics   Prometheus metrics`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	cmd.Flags().StringSlice("tls-host", nil, "extra host names or IPs the certificate must cover")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	app, err := loadApp()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		app.HTTP.Addr = addr
	}

	l, err := newLedger(ctx, app)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			slog.Warn("Failed to close ledger", "error", err)
		}
	}()

	sessions := l.engine.Sessions()
	sessions.Start(ctx)

	opts := httpapi.Options{
		Events:       l.engine,
		Reports:      l.reports,
		Metrics:      metrics.Handler(l.registry),
		Sessions:     sessions.Active,
		Addr:         app.HTTP.Addr,
		ReadTimeout:  app.HTTP.ReadTimeout,
		WriteTimeout: app.HTTP.WriteTimeout,
	}
	if useTLS, _ := cmd.Flags().GetBool("tls"); useTLS {
		hosts, _ := cmd.Flags().GetStringSlice("tls-host")
		manager := certs.NewFileManager(filepath.Join(config.ConfigDir(), "certs"), hosts...)
		if opts.TLS, err = manager.TLSConfig(); err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
	}
	server := httpapi.New(opts)

	slog.Info("Ledger ready",
		"backend", app.Store.Backend,
		"allowed_users", len(app.Users.Allowed),
		"persist_sessions", app.Sessions.Persist)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
