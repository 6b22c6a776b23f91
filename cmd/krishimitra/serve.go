package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/krishimitra/pkg/logging"
	"github.com/sweetpotato0/krishimitra/session/store"
	"github.com/sweetpotato0/krishimitra/web"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the KrishiMitra web app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to KRISHIMITRA_ADDR)")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if addr == "" {
		addr = a.cfg.App.Addr
	}

	sessions := store.New(a.cfg.Session)
	defer sessions.Close()

	srv, err := web.NewServer(web.Config{
		Addr:         addr,
		SessionTTL:   a.cfg.Session.TTL,
		SecureCookie: a.cfg.App.Env == "production",
	}, a.advisor, sessions,
		web.WithLogger(logging.WithComponent("web")),
		web.WithMetricsHandler(a.metrics.Handler()),
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
