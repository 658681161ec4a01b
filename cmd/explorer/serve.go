package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/program-explorer/internal/http"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer HTTP API",
		Long: `Serve the explorer HTTP API.

The listen port comes from EXPLORER_HTTP_PORT unless --addr is given.
A dataset that cannot be loaded is logged and the API answers 503.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides EXPLORER_HTTP_PORT")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, addr string) error {
	a, err := newApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	a.preload(ctx)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Program:   httptransport.NewProgramHandler(a.programs, logger),
		Bookmarks: httptransport.NewBookmarkHandler(a.bookmarks, logger),
		Calendar:  httptransport.NewCalendarHandler(a.calendar, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})

	if addr == "" {
		addr = fmt.Sprintf(":%d", a.cfg.HTTPPort)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("explorer API listening", "addr", server.Addr, "storage", a.cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	logger.Info("explorer API stopped")
	return nil
}

// preload fetches the dataset before serving. The loader logs the outcome; a
// failure is memoized and the API answers 503.
func (a *app) preload(ctx context.Context) {
	_, _ = a.dataset.Load(ctx)
}
