package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/spec-kit/incident-service/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "NOTIFY_DRIVER", "AUTH_TOKEN_TTL", "LIFECYCLE_STRICT", "APP_HOST", "APP_PORT"} {
		t.Setenv(key, "")
		gt.NoError(t, os.Unsetenv(key)).Required()
	}

	cfg, err := config.Load()
	gt.NoError(t, err).Required()

	gt.Value(t, cfg.Database.Driver).Equal("postgres")
	gt.Value(t, cfg.Notification.Driver).Equal(config.NotifyDriverLog)
	gt.Value(t, cfg.Auth.TokenTTL).Equal(24 * time.Hour)
	gt.Bool(t, cfg.Lifecycle.Strict).True()
	gt.Value(t, cfg.App.Addr()).Equal("0.0.0.0:5000")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LIFECYCLE_STRICT", "false")
	t.Setenv("APP_PORT", "8081")
	t.Setenv("NOTIFY_SEND_TIMEOUT", "2s")

	cfg, err := config.Load()
	gt.NoError(t, err).Required()

	gt.Value(t, cfg.Database.Driver).Equal("sqlite")
	gt.Bool(t, cfg.Lifecycle.Strict).False()
	gt.Value(t, cfg.App.Port).Equal("8081")
	gt.Value(t, cfg.Notification.SendTimeout).Equal(2 * time.Second)
}

func TestValidate(t *testing.T) {
	t.Run("rejects unknown database driver", func(t *testing.T) {
		cfg := &config.Config{
			Database:     config.DatabaseConfig{Driver: "mysql"},
			Notification: config.NotificationConfig{Driver: config.NotifyDriverLog},
		}
		gt.Error(t, cfg.Validate())
	})

	t.Run("fcm requires a server key", func(t *testing.T) {
		cfg := &config.Config{
			Database:     config.DatabaseConfig{Driver: "postgres"},
			Notification: config.NotificationConfig{Driver: config.NotifyDriverFCM},
		}
		gt.Error(t, cfg.Validate())

		cfg.Notification.FCMServerKey = "key"
		gt.NoError(t, cfg.Validate())
	})
}
