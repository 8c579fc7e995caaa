package ioc

import (
	"time"

	"github.com/KNICEX/stock-alert/internal/repo"
	"github.com/KNICEX/stock-alert/internal/service/alert"
	"go.uber.org/zap"
)

func InitAlertService(alertRepo repo.AlertRepo, l *zap.Logger) *alert.Service {
	type Config struct {
		MaxRetries      int           `mapstructure:"max_retries"`
		RetryMinBackoff time.Duration `mapstructure:"retry_min_backoff"`
		RetryMaxBackoff time.Duration `mapstructure:"retry_max_backoff"`
	}

	cfg := Config{
		MaxRetries:      3,
		RetryMinBackoff: 20 * time.Millisecond,
		RetryMaxBackoff: 500 * time.Millisecond,
	}
	if err := unmarshalKey("alert", &cfg); err != nil {
		panic(err)
	}

	return alert.NewService(alertRepo,
		alert.WithLogger(l.Named("alert")),
		alert.WithRetry(cfg.MaxRetries, cfg.RetryMinBackoff, cfg.RetryMaxBackoff),
	)
}
