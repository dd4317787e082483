package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"colorcam/config"
	"colorcam/internal/platform/logging"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "colorcam",
		Short:         "Color detection from a live camera",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newBotCmd(), newServeCmd(), newIdentifyCmd())
	return root
}

// loadConfig читает конфигурацию и собирает корневой логгер.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %v", problems)
	}

	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

// signalContext отменяется по SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// serveHTTP запускает srv в группе и останавливает его при отмене ctx.
func serveHTTP(ctx context.Context, g *errgroup.Group, srv *http.Server, logger zerolog.Logger) {
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", srv.Addr).Msg("graceful shutdown")
		}
		return nil
	})
}
