package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/roomchat/internal/api"
	"github.com/mcoot/roomchat/internal/config"
	"github.com/mcoot/roomchat/internal/factory"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var configPath string
	cmd := &cobra.Command{
		Use:          "roomchat-server",
		Short:        "Run the roomchat HTTP and WebSocket server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml if present)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	factoryCfg := cfg.Factory()
	factoryCfg.Logger = logger

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("closing storage", slog.String("error", err.Error()))
		}
	}()

	admins, err := cfg.AdminAccounts()
	if err != nil {
		return err
	}
	if err := app.SeedAdmins(ctx, admins); err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Clock:       app.Clock,
		AuthService: app.AuthService,
		Gateway:     app.Gateway,
		Registry:    app.Registry,
		Hubs:        app.Hubs,
		WebSocket:   cfg.WebSocketSettings(),
	})
	server := api.NewServer(router, cfg.HTTPServer(), logger)

	go sweepSessions(ctx, app, cfg.Auth.CleanupInterval)

	logger.Info("server configured",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
		slog.Int("admins", len(admins)),
	)

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func sweepSessions(ctx context.Context, app *factory.App, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.AuthService.CleanExpiredSessions()
		}
	}
}
