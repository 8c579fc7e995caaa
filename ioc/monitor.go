package ioc

import (
	"time"

	"github.com/KNICEX/stock-alert/internal/repo"
	"github.com/KNICEX/stock-alert/internal/schedule"
	"github.com/KNICEX/stock-alert/internal/service/monitor"
	"github.com/KNICEX/stock-alert/internal/service/quote"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func InitMonitorTask(alertRepo repo.AlertRepo, oracle quote.PriceOracle, l *zap.Logger) *monitor.AlertMonitorTask {
	type Config struct {
		MaxRetries        int           `mapstructure:"max_retries"`
		LookupConcurrency int           `mapstructure:"lookup_concurrency"`
		LookupTimeout     time.Duration `mapstructure:"lookup_timeout"`
	}

	cfg := Config{
		MaxRetries:        3,
		LookupConcurrency: 4,
		LookupTimeout:     viper.GetDuration("oracle.timeout"),
	}
	if err := unmarshalKey("monitor", &cfg); err != nil {
		panic(err)
	}

	return monitor.NewAlertMonitorTask(alertRepo, oracle,
		monitor.WithLogger(l.Named("monitor")),
		monitor.WithMaxRetries(cfg.MaxRetries),
		monitor.WithLookupConcurrency(cfg.LookupConcurrency),
		monitor.WithLookupTimeout(cfg.LookupTimeout),
	)
}

func InitMonitor(task schedule.Task, l *zap.Logger) *schedule.Runner {
	interval := time.Minute
	if viper.IsSet("monitor.interval") {
		interval = viper.GetDuration("monitor.interval")
	}
	return schedule.NewRunner(task, interval, schedule.WithRunnerLogger(l.Named("schedule")))
}
