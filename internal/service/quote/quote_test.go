package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KNICEX/stock-alert/internal/domain"
	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBinance(t *testing.T, handler http.HandlerFunc) *BinanceOracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cli := binance.NewClient("", "")
	cli.BaseURL = srv.URL
	return NewBinanceOracle(cli, "USDT")
}

func TestBinanceOracle_GetPrice(t *testing.T) {
	var gotSymbol string
	oracle := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		gotSymbol = r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"101.50000000"}`))
	})

	price, err := oracle.GetPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", gotSymbol)
	assert.True(t, decimal.RequireFromString("101.5").Equal(price))
}

func TestBinanceOracle_Unavailable(t *testing.T) {
	oracle := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := oracle.GetPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestRandomOracle_Range(t *testing.T) {
	oracle := NewRandomOracle(42)
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(1000)
	for i := 0; i < 200; i++ {
		price, err := oracle.GetPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.True(t, price.GreaterThanOrEqual(lo) && price.LessThanOrEqual(hi), "price %s out of range", price)
		assert.True(t, price.Equal(price.Round(2)))
	}
}

func TestRandomOracle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRandomOracle(1).GetPrice(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
}
