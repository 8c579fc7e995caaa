package quote

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

var _ PriceOracle = (*RandomOracle)(nil)

// RandomOracle produces demo prices uniformly in [10, 1000] with two decimals.
type RandomOracle struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomOracle(seed int64) *RandomOracle {
	return &RandomOracle{rnd: rand.New(rand.NewSource(seed))}
}

func (o *RandomOracle) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	o.mu.Lock()
	f := o.rnd.Float64()
	o.mu.Unlock()
	return decimal.NewFromFloat(f*990 + 10).Round(2), nil
}
