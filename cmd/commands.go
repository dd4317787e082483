package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	telegram "colorcam/internal/api"
	app "colorcam/internal/application"
	"colorcam/internal/container"
	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
	"colorcam/internal/infrastructure/camera"
)

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot over the device camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			c := container.New(cfg, container.DefaultDevices(cfg), logger)
			defer c.Close()

			bot, err := telegram.NewBot(cfg.TelegramToken, c.Controller, c.Viewers, c.IdentifyImage, logger)
			if err != nil {
				return fmt.Errorf("create bot: %w", err)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return bot.Run(gctx) })
			if cfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", c.Metrics.Handler())
				serveHTTP(gctx, g, &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}, logger)
			}

			logger.Info().Str("endpoint", c.Detector.Endpoint()).Msg("bot is running")
			return g.Wait()
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the color detection endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			endpoint, err := container.NewEndpoint(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			serveHTTP(gctx, g, &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           endpoint.Router,
				ReadHeaderTimeout: 5 * time.Second,
			}, logger)

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}

func newIdentifyCmd() *cobra.Command {
	var (
		imagePath string
		facing    string
	)

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Capture one frame and print its color",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if facing != "" {
				cfg.CameraFacing = facing
			}

			var devices port.MediaDevices
			if imagePath != "" {
				still, err := camera.LoadStillDevices(imagePath)
				if err != nil {
					return err
				}
				devices = still
			} else {
				devices = container.DefaultDevices(cfg)
			}

			c := container.New(cfg, devices, logger)
			defer c.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			result, err := app.IdentifyOnce(ctx, devices, entity.FacingMode(cfg.CameraFacing), c.Detector,
				c.Controller.Config(), c.Metrics, logger)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), app.UserMessage(err))
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "JPEG or PNG file to use instead of the camera")
	cmd.Flags().StringVar(&facing, "facing", "", "camera preference: environment or user")
	return cmd
}
