package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Lachee/gall-bot/internal/bridge"
	"github.com/Lachee/gall-bot/internal/config"
	"github.com/Lachee/gall-bot/internal/db"
	"github.com/Lachee/gall-bot/internal/discord"
	"github.com/Lachee/gall-bot/internal/gall"
	"github.com/Lachee/gall-bot/internal/handlers"
	"github.com/Lachee/gall-bot/internal/index"
	"github.com/Lachee/gall-bot/internal/logger"
	"github.com/Lachee/gall-bot/internal/server"
	"github.com/Lachee/gall-bot/internal/settings"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideIndexStore,
			provideSettingsService,
			provideGallClient,
			provideGalleryClient,
			provideGateway,
			provideCollector,
			provideBridgeService,
			providePingHandler,
			provideStatusHandler,
			provideSettingsHandler,
			provideServer,
		),
		fx.Invoke(
			startGateway,
			startSyncJob,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideIndexStore(log *slog.Logger, conn *pgxpool.Pool) *index.PGStore {
	return index.NewPGStore(log, conn)
}

func provideSettingsService(log *slog.Logger, conn *pgxpool.Pool) *settings.Service {
	return settings.NewService(log, conn)
}

func provideGallClient(log *slog.Logger, cfg config.Config) *gall.Client {
	return gall.New(log, cfg.Gall.BaseURL, cfg.Gall.Token)
}

func provideGalleryClient(client *gall.Client) bridge.GalleryClient {
	return bridge.NewGalleryClient(client)
}

func provideGateway(log *slog.Logger, cfg config.Config) (*discord.Gateway, error) {
	return discord.NewGateway(log, cfg.Discord)
}

func provideCollector(log *slog.Logger, cfg config.Config, gateway *discord.Gateway) *bridge.Collector {
	return bridge.NewCollector(log, gateway, cfg.Burst.Extend(), cfg.Burst.Total())
}

func provideBridgeService(log *slog.Logger, client bridge.GalleryClient, gateway *discord.Gateway, store *index.PGStore, settingsService *settings.Service, collector *bridge.Collector) *bridge.Service {
	return bridge.NewService(log, client, gateway, store, settingsService, collector)
}

func providePingHandler(log *slog.Logger) *handlers.PingHandler {
	return handlers.NewPingHandler(log)
}

func provideStatusHandler(log *slog.Logger, gateway *discord.Gateway, store *index.PGStore) *handlers.StatusHandler {
	return handlers.NewStatusHandler(log, gateway, store)
}

func provideSettingsHandler(log *slog.Logger, settingsService *settings.Service) *handlers.SettingsHandler {
	return handlers.NewSettingsHandler(log, settingsService)
}

func provideServer(log *slog.Logger, cfg config.Config, pingHandler *handlers.PingHandler, statusHandler *handlers.StatusHandler, settingsHandler *handlers.SettingsHandler) *server.Server {
	return server.NewServer(log, cfg.Server.Addr, pingHandler, statusHandler, settingsHandler)
}

func startGateway(lc fx.Lifecycle, gateway *discord.Gateway, service *bridge.Service) {
	gateway.Bind(service)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return gateway.Start(ctx) },
		OnStop:  func(ctx context.Context) error { return gateway.Stop(ctx) },
	})
}

func startSyncJob(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config, gateway *discord.Gateway) error {
	schedule := cfg.Sync.Schedule
	if schedule == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		gateway.ResyncAll(context.Background())
	}); err != nil {
		return fmt.Errorf("sync schedule %q: %w", schedule, err)
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting periodic guild sync", slog.String("schedule", schedule))
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
	return nil
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
