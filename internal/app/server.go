package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/npanukhin/excel_uploader/internal/config"
	"github.com/npanukhin/excel_uploader/internal/procserver"
	"golang.org/x/sync/errgroup"
)

// ServerApp runs the reference processing server until the context is
// cancelled.
type ServerApp struct {
	log *slog.Logger
	cfg *config.Config
}

func NewServer(log *slog.Logger, cfg *config.Config) *ServerApp {
	return &ServerApp{
		log: log,
		cfg: cfg,
	}
}

func (a *ServerApp) Run(ctx context.Context) error {
	server := procserver.NewServer(a.log, a.cfg.HTTP)

	erg, ctx := errgroup.WithContext(ctx)

	erg.Go(func() error {
		a.log.InfoContext(ctx, "starting http server",
			slog.String("addr", net.JoinHostPort(a.cfg.HTTP.Host, a.cfg.HTTP.Port)),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	})

	erg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := erg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "server stopped with error", slog.String("err", err.Error()))

		return err
	}

	a.log.InfoContext(ctx, "server stopped gracefully")

	return nil
}
