package monitor

import (
	"time"

	"github.com/KNICEX/stock-alert/pkg/clock"
	"go.uber.org/zap"
)

// TickReport 单次巡检结果
type TickReport struct {
	StartedAt time.Time `json:"startedAt"`
	// 参与评估的活跃提醒数
	Evaluated int `json:"evaluated"`
	// 成功获取价格的代码
	Priced []string `json:"priced"`
	// 本轮无价格而跳过的代码
	Skipped   []SkippedSymbol `json:"skipped"`
	Triggered []string        `json:"triggered"`
	// 提交时已被删除的提醒
	Dropped  []string `json:"dropped"`
	Attempts int      `json:"attempts"`
}

type SkippedSymbol struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

type Option func(t *AlertMonitorTask)

func WithClock(c clock.Clock) Option {
	return func(t *AlertMonitorTask) {
		t.clock = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *AlertMonitorTask) {
		t.logger = logger
	}
}

// WithMaxRetries bounds how many times a conflicting tick is re-evaluated.
// The count includes the first attempt.
func WithMaxRetries(n int) Option {
	return func(t *AlertMonitorTask) {
		if n > 0 {
			t.maxRetries = n
		}
	}
}

// WithLookupConcurrency caps parallel price lookups within a tick.
func WithLookupConcurrency(n int) Option {
	return func(t *AlertMonitorTask) {
		if n > 0 {
			t.lookupConcurrency = n
		}
	}
}

// WithLookupTimeout bounds a single price lookup. Zero disables the bound.
func WithLookupTimeout(d time.Duration) Option {
	return func(t *AlertMonitorTask) {
		t.lookupTimeout = d
	}
}
