package ioc

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/KNICEX/stock-alert/internal/repo"
	"github.com/KNICEX/stock-alert/internal/repo/repotest"
	"github.com/KNICEX/stock-alert/internal/service/alert"
	"github.com/KNICEX/stock-alert/internal/service/quote"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const testConfig = `
log:
  level: debug
monitor:
  max_retries: 3
  lookup_concurrency: 2
oracle:
  provider: random
  quote_asset: USDT
cex:
  binance:
    api_key: file-key
    api_secret: file-secret
`

func loadTestConfig(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	viper.Reset()
	t.Cleanup(viper.Reset)
	InitEnv()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(testConfig)))
}

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

type conflictRepo struct {
	repo.AlertRepo
}

func (r conflictRepo) Begin(opts ...repo.UnitOfWorkOption) repo.UnitOfWork {
	return conflictUoW{UnitOfWork: r.AlertRepo.Begin(opts...)}
}

type conflictUoW struct {
	repo.UnitOfWork
}

func (conflictUoW) Commit(ctx context.Context) error {
	return fmt.Errorf("%w: injected", domain.ErrConflict)
}

func TestInitMonitorTask_EnvOverride(t *testing.T) {
	testCases := []struct {
		name         string
		env          map[string]string
		wantAttempts int
	}{
		{name: "file value", wantAttempts: 3},
		{name: "env value", env: map[string]string{"ALERTS_MONITOR_MAX_RETRIES": "9"}, wantAttempts: 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			loadTestConfig(t, tc.env)

			alertRepo := repo.NewAlertRepo(repotest.NewDB(t), nil)
			a, err := domain.NewAlert(uuid.NewString(), "u1", domain.Fields{
				Symbol:      "AAPL",
				TargetPrice: decimal.NewFromInt(100),
				Direction:   domain.Above,
			}, testNow)
			require.NoError(t, err)
			uow := alertRepo.Begin()
			uow.Add(a)
			require.NoError(t, uow.Commit(context.Background()))

			oracle := quote.OracleFunc(func(ctx context.Context, symbol string) (decimal.Decimal, error) {
				return decimal.NewFromInt(150), nil
			})
			task := InitMonitorTask(conflictRepo{AlertRepo: alertRepo}, oracle, zap.NewNop())
			report, err := task.Tick(context.Background())
			assert.ErrorIs(t, err, domain.ErrConflict)
			assert.Equal(t, tc.wantAttempts, report.Attempts)
		})
	}
}

func TestInitPriceOracle_EnvOverride(t *testing.T) {
	loadTestConfig(t, map[string]string{"ALERTS_ORACLE_PROVIDER": "binance"})
	assert.IsType(t, &quote.BinanceOracle{}, InitPriceOracle())

	loadTestConfig(t, map[string]string{"ALERTS_ORACLE_PROVIDER": "bogus"})
	assert.Panics(t, func() { InitPriceOracle() })
}

func TestInitBinanceCli_EnvOverride(t *testing.T) {
	loadTestConfig(t, map[string]string{"ALERTS_CEX_BINANCE_API_KEY": "env-key"})
	cli := InitBinanceCli()
	assert.Equal(t, "env-key", cli.APIKey)
	assert.Equal(t, "file-secret", cli.SecretKey)
}

func TestInitLogger_EnvOverride(t *testing.T) {
	loadTestConfig(t, map[string]string{"ALERTS_LOG_LEVEL": "error"})
	logger := InitLogger()
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestInitAlertService_KeyMissingFromFile(t *testing.T) {
	loadTestConfig(t, map[string]string{
		"ALERTS_ALERT_MAX_RETRIES":       "2",
		"ALERTS_ALERT_RETRY_MIN_BACKOFF": "1ms",
		"ALERTS_ALERT_RETRY_MAX_BACKOFF": "2ms",
	})
	alertRepo := repo.NewAlertRepo(repotest.NewDB(t), nil)
	created, err := InitAlertService(alertRepo, zap.NewNop()).CreateAlert(context.Background(), alert.CreateParams{
		Symbol:      "AAPL",
		TargetPrice: decimal.NewFromInt(100),
		Direction:   domain.Above,
		CreatedBy:   "u1",
	})
	require.NoError(t, err)

	svc := InitAlertService(conflictRepo{AlertRepo: alertRepo}, zap.NewNop())
	_, err = svc.DeactivateAlert(context.Background(), created.Id)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
