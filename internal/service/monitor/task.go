package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/KNICEX/stock-alert/internal/repo"
	"github.com/KNICEX/stock-alert/internal/schedule"
	"github.com/KNICEX/stock-alert/internal/service/quote"
	"github.com/KNICEX/stock-alert/pkg/clock"
	"github.com/KNICEX/stock-alert/pkg/decimalx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var _ schedule.Task = (*AlertMonitorTask)(nil)

// AlertMonitorTask evaluates every active alert against the current price of
// its symbol and persists the triggered ones in a single commit per tick.
type AlertMonitorTask struct {
	repo   repo.AlertRepo
	oracle quote.PriceOracle
	clock  clock.Clock
	logger *zap.Logger

	maxRetries        int
	lookupConcurrency int
	lookupTimeout     time.Duration
}

func NewAlertMonitorTask(alertRepo repo.AlertRepo, oracle quote.PriceOracle, opts ...Option) *AlertMonitorTask {
	task := &AlertMonitorTask{
		repo:              alertRepo,
		oracle:            oracle,
		clock:             clock.Real(),
		logger:            zap.NewNop(),
		maxRetries:        3,
		lookupConcurrency: 4,
	}
	for _, opt := range opts {
		opt(task)
	}
	return task
}

func (t *AlertMonitorTask) Name() string {
	return "alert price monitor task"
}

func (t *AlertMonitorTask) Run(ctx context.Context) error {
	report, err := t.Tick(ctx)
	if err != nil {
		return err
	}
	t.logger.Info("alert monitor tick done",
		zap.Int("evaluated", report.Evaluated),
		zap.Int("priced", len(report.Priced)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Strings("triggered", report.Triggered),
		zap.Strings("dropped", report.Dropped),
		zap.Int("attempts", report.Attempts),
	)
	return nil
}

// Tick runs one evaluation pass. Each distinct symbol is priced at most once
// per tick, even when a write conflict forces a re-evaluation from a fresh
// snapshot. A symbol without a price only skips its own alerts.
func (t *AlertMonitorTask) Tick(ctx context.Context) (TickReport, error) {
	report := TickReport{StartedAt: t.clock.Now()}
	prices := make(map[string]decimal.Decimal)
	unavailable := make(map[string]error)

	for attempt := 1; ; attempt++ {
		report.Attempts = attempt

		alerts, err := t.repo.ListAll(ctx)
		if err != nil {
			return report, fmt.Errorf("load alerts: %w", err)
		}
		active := lo.Filter(alerts, func(a *domain.Alert, _ int) bool {
			return a.IsActive()
		})
		bySymbol := lo.GroupBy(active, func(a *domain.Alert) string {
			return a.Symbol()
		})
		symbols := lo.Keys(bySymbol)
		sort.Strings(symbols)

		t.lookup(ctx, lo.Reject(symbols, func(s string, _ int) bool {
			_, priced := prices[s]
			_, failed := unavailable[s]
			return priced || failed
		}), prices, unavailable)
		if err := ctx.Err(); err != nil {
			return report, err
		}

		now := t.clock.Now()
		uow := t.repo.Begin(repo.SkipMissing())
		report.Evaluated = len(active)
		report.Priced, report.Skipped, report.Triggered = nil, nil, nil
		for _, symbol := range symbols {
			price, ok := prices[symbol]
			if !ok {
				report.Skipped = append(report.Skipped, SkippedSymbol{
					Symbol: symbol,
					Reason: unavailable[symbol].Error(),
				})
				continue
			}
			report.Priced = append(report.Priced, symbol)
			for _, a := range bySymbol[symbol] {
				if t.evaluate(a, price, now) {
					uow.MarkDirty(a)
					report.Triggered = append(report.Triggered, a.ID())
				}
			}
		}

		err = uow.Commit(context.WithoutCancel(ctx))
		if err == nil {
			report.Dropped = uow.Dropped()
			report.Triggered = lo.Without(report.Triggered, report.Dropped...)
			for _, id := range report.Dropped {
				t.logger.Info("triggered alert was deleted before commit", zap.String("alert_id", id))
			}
			return report, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return report, fmt.Errorf("commit triggered alerts: %w", err)
		}
		if attempt >= t.maxRetries {
			t.logger.Warn("alert monitor conflict, deferring to next tick",
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return report, fmt.Errorf("commit triggered alerts after %d attempts: %w", attempt, err)
		}
		t.logger.Debug("alert monitor conflict, re-evaluating", zap.Int("attempt", attempt), zap.Error(err))
	}
}

func (t *AlertMonitorTask) evaluate(a *domain.Alert, price decimal.Decimal, now time.Time) bool {
	hit, err := a.ShouldTrigger(price)
	if err != nil {
		t.logger.Error("skip unevaluable alert", zap.String("alert_id", a.ID()), zap.Error(err))
		return false
	}
	if !hit {
		return false
	}
	if err := a.Trigger(now); err != nil {
		t.logger.Error("trigger alert failed", zap.String("alert_id", a.ID()), zap.Error(err))
		return false
	}
	t.logger.Info("alert triggered",
		zap.String("alert_id", a.ID()),
		zap.String("symbol", a.Symbol()),
		zap.String("direction", string(a.Direction())),
		zap.String("target_price", a.TargetPrice().String()),
		zap.String("price", price.String()),
	)
	return true
}

type quoteResult struct {
	symbol string
	price  decimal.Decimal
	err    error
}

func (t *AlertMonitorTask) lookup(ctx context.Context, symbols []string, prices map[string]decimal.Decimal, unavailable map[string]error) {
	if len(symbols) == 0 {
		return
	}
	p := pool.NewWithResults[quoteResult]().WithMaxGoroutines(t.lookupConcurrency)
	for _, symbol := range symbols {
		symbol := symbol
		p.Go(func() quoteResult {
			price, err := t.quote(ctx, symbol)
			if err != nil {
				t.logger.Warn("price unavailable, skip symbol", zap.String("symbol", symbol), zap.Error(err))
			}
			return quoteResult{symbol: symbol, price: price, err: err}
		})
	}
	for _, res := range p.Wait() {
		if res.err != nil {
			unavailable[res.symbol] = res.err
			continue
		}
		prices[res.symbol] = res.price
	}
}

func (t *AlertMonitorTask) quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if t.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.lookupTimeout)
		defer cancel()
	}
	price, err := t.oracle.GetPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !decimalx.IsPositive(price) {
		return decimal.Zero, fmt.Errorf("%w: %s: non-positive price %s", domain.ErrPriceUnavailable, symbol, price)
	}
	return price, nil
}
