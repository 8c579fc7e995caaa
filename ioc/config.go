package ioc

import (
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "ALERTS"

// envKeys are bound even when the config file leaves them out.
var envKeys = []string{
	"log.level",
	"log.development",
	"db.driver",
	"db.dsn",
	"db.max_open_conns",
	"db.max_idle_conns",
	"db.conn_max_lifetime",
	"monitor.interval",
	"monitor.max_retries",
	"monitor.lookup_concurrency",
	"monitor.lookup_timeout",
	"alert.max_retries",
	"alert.retry_min_backoff",
	"alert.retry_max_backoff",
	"oracle.provider",
	"oracle.quote_asset",
	"oracle.timeout",
	"oracle.seed",
	"cex.binance.api_key",
	"cex.binance.api_secret",
}

// InitEnv lets ALERTS_* variables override config keys, e.g.
// ALERTS_CEX_BINANCE_API_KEY for cex.binance.api_key.
func InitEnv() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			panic(err)
		}
	}
}

// unmarshalKey decodes one config section key by key, so env overrides of
// nested keys are applied. viper.UnmarshalKey only sees the file's map.
func unmarshalKey(key string, rawVal any) error {
	section := viper.New()
	prefix := key + "."
	for _, k := range viper.AllKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v := viper.Get(k); v != nil {
			section.Set(strings.TrimPrefix(k, prefix), v)
		}
	}
	return section.Unmarshal(rawVal)
}
