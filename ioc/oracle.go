package ioc

import (
	"fmt"
	"time"

	"github.com/KNICEX/stock-alert/internal/service/quote"
)

func InitPriceOracle() quote.PriceOracle {
	type Config struct {
		Provider   string `mapstructure:"provider"`
		QuoteAsset string `mapstructure:"quote_asset"`
		Seed       int64  `mapstructure:"seed"`
	}

	cfg := Config{
		Provider:   "random",
		QuoteAsset: "USDT",
	}
	if err := unmarshalKey("oracle", &cfg); err != nil {
		panic(err)
	}

	switch cfg.Provider {
	case "binance":
		return quote.NewBinanceOracle(InitBinanceCli(), cfg.QuoteAsset)
	case "random":
		if cfg.Seed == 0 {
			cfg.Seed = time.Now().UnixNano()
		}
		return quote.NewRandomOracle(cfg.Seed)
	default:
		panic(fmt.Errorf("unsupported price oracle %q", cfg.Provider))
	}
}
