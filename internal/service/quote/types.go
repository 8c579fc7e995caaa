package quote

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceOracle 行情价格来源
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// OracleFunc adapts a plain function to PriceOracle.
type OracleFunc func(ctx context.Context, symbol string) (decimal.Decimal, error)

func (f OracleFunc) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return f(ctx, symbol)
}
