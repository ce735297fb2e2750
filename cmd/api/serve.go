package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/incident-service/internal/api/http"
	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/notification"
	"github.com/spec-kit/incident-service/internal/observability"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, err := openStore(ctx, cfg, logger, cfg.Postgres.RunMigrations || cfg.Database.Driver == "sqlite")
	if err != nil {
		logger.Error("failed to open store", zap.Error(err))
		return err
	}
	defer st.close()

	deps := map[string]handlers.Pinger{"database": st.pinger}

	var rdb *persistence.Redis
	if cfg.Notification.Driver == config.NotifyDriverRedis {
		rdb = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rdb.Close()
		deps["redis"] = rdb
	}

	gateway, err := notification.NewGateway(cfg.Notification, rdb, logger)
	if err != nil {
		return err
	}

	dispatcher := events.NewAsyncDispatcher(logger)
	defer dispatcher.Close()
	service.NewNotificationService(dispatcher, st.users, gateway, logger, cfg.Notification.SendTimeout).RegisterHandlers()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: st.users, Logger: logger})
	userService := service.NewUserService(st.users, logger)
	incidentService := service.NewIncidentService(service.IncidentDependencies{
		IncidentRepo: st.incidents,
		UserRepo:     st.users,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Strict:       cfg.Lifecycle.Strict,
	})

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(httptransport.AppConfig{
		Name:           cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout,
		Logger:         logger,
		Metrics:        metrics,
		Routes: httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
			Auth:           handlers.NewAuthHandler(authService),
			Users:          handlers.NewUsersHandler(userService),
			Incidents:      handlers.NewIncidentsHandler(incidentService),
			AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
		},
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("notify_driver", cfg.Notification.Driver),
			zap.Bool("lifecycle_strict", cfg.Lifecycle.Strict))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}
