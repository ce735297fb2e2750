package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/notification"
	"github.com/spec-kit/incident-service/internal/persistence"
	"github.com/spec-kit/incident-service/internal/worker"
)

var pushWorkerCmd = &cobra.Command{
	Use:   "push-worker",
	Short: "Deliver push notifications queued in Redis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx := cmd.Context()
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rdb.Close()

		var gateway notification.Gateway = notification.NewLogGateway(logger)
		if cfg.Notification.FCMServerKey != "" {
			gateway = notification.NewFCMGateway(cfg.Notification.FCMEndpoint, cfg.Notification.FCMServerKey, cfg.Notification.SendTimeout)
		} else {
			logger.Warn("NOTIFY_FCM_SERVER_KEY not set; queued messages will only be logged")
		}

		w := worker.NewPushWorker(rdb.Client, cfg.Notification.QueueKey, gateway, logger, cfg.Notification.SendTimeout)
		if err := w.Run(ctx); err != nil {
			logger.Error("push worker", zap.Error(err))
			return err
		}
		return nil
	},
}
