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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/nyaa-go/api"
	"github.com/yourusername/nyaa-go/api/handlers"
	"github.com/yourusername/nyaa-go/internal/app"
	"github.com/yourusername/nyaa-go/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:           "nyaa-server",
		Short:         "HTTP API for searching nyaa and sending torrents to download clients",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.config/nyaa/config.yaml)")
}

func runServer(cmd *cobra.Command, args []string) error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting nyaa server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port))

	services, err := app.NewServices(config, log)
	if err != nil {
		log.Error("Failed to initialize services", zap.Error(err))
		return err
	}
	defer services.Close()

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           api.SetupRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
