package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/tutor/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, lesson pages and front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}

func runServe(cmd *cobra.Command, addrFlag string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.settings.ListenAddr
	if addrFlag != "" {
		addr = addrFlag
	}

	api := httpapi.New(a.backend, a.ledger, a.generator, a.recorder, a.logger)
	srv := &http.Server{
		Handler: api.Handler(httpapi.Options{
			APIPrefix:  a.settings.APIPrefix,
			LessonsURL: a.settings.LessonsURL,
			LessonsDir: a.settings.LessonsDir,
			PublicDir:  a.settings.PublicDir,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return sysError("listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("data_dir", a.settings.DataDir),
			zap.Int("catalog_size", a.catalog.Size()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return sysError("serve: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "server stopped")
	return nil
}
