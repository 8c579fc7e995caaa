package quote

import (
	"context"
	"fmt"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

var _ PriceOracle = (*BinanceOracle)(nil)

// BinanceOracle reads last prices from the Binance spot ticker, pairing each
// symbol with a fixed quote asset (AAPL -> AAPLUSDT).
type BinanceOracle struct {
	cli   *binance.Client
	quote string
}

func NewBinanceOracle(cli *binance.Client, quote string) *BinanceOracle {
	return &BinanceOracle{cli: cli, quote: quote}
}

func (o *BinanceOracle) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pair := symbol + o.quote
	prices, err := o.cli.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", domain.ErrPriceUnavailable, pair, err)
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s: no ticker", domain.ErrPriceUnavailable, pair)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: bad price %q", domain.ErrPriceUnavailable, pair, prices[0].Price)
	}
	return price, nil
}
