package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the bot to market-data providers
	DefaultUserAgent = "ton-buybot/1.0 (+https://t.me)"
)

// Config holds the full application configuration. Values come from the
// YAML file, with secrets overridable through environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Bot struct {
		Token          string `yaml:"token"`
		APIBaseURL     string `yaml:"api_base_url"`
		TrendingChatID int64  `yaml:"trending_chat_id"` // 0 = no global channel
	} `yaml:"bot"`

	Chain struct {
		Network  string `yaml:"network"`
		Decimals int32  `yaml:"decimals"`
	} `yaml:"chain"`

	Providers struct {
		TonPriceURL      string `yaml:"ton_price_url"`
		TonPriceTTLSec   int    `yaml:"ton_price_ttl_sec"`
		DexScreenerURL   string `yaml:"dexscreener_url"`
		DexDataTTLSec    int    `yaml:"dex_data_ttl_sec"`
		GeckoTerminalURL string `yaml:"geckoterminal_url"`
		FetchTimeoutSec  int    `yaml:"fetch_timeout_sec"`
	} `yaml:"providers"`

	Watch struct {
		PollSeconds   int `yaml:"poll_seconds"`
		TradePageSize int `yaml:"trade_page_size"`
	} `yaml:"watch"`

	Dispatch struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"dispatch"`

	Links struct {
		ExplorerTxURL  string `yaml:"explorer_tx_url"`  // printf template, %s = tx hash
		GTTokenURL     string `yaml:"gt_token_url"`     // printf template, %s = token address
		DexSTokenURL   string `yaml:"dexs_token_url"`   // printf template, %s = token address
		TrendingURL    string `yaml:"trending_url"`
		BookTrendURL   string `yaml:"book_trend_url"`
		DtradeReferral string `yaml:"dtrade_referral"` // base; "_<token>" is appended
	} `yaml:"links"`

	// DexDisplay maps raw venue identifiers to human labels,
	// e.g. stonfi_router -> STON.fi
	DexDisplay map[string]string `yaml:"dex_display"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file. A missing file is not
// fatal: the bot can run entirely from defaults plus environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	applyDefaults(&cfg)

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.App.Name = "tonbuybot"
	cfg.App.Version = "dev"
	cfg.Bot.APIBaseURL = "https://api.telegram.org"
	cfg.Chain.Network = "ton"
	cfg.Chain.Decimals = 9
	cfg.Providers.TonPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=the-open-network&vs_currencies=usd"
	cfg.Providers.TonPriceTTLSec = 60
	cfg.Providers.DexScreenerURL = "https://api.dexscreener.com"
	cfg.Providers.DexDataTTLSec = 20
	cfg.Providers.GeckoTerminalURL = "https://api.geckoterminal.com/api/v2"
	cfg.Providers.FetchTimeoutSec = 10
	cfg.Watch.PollSeconds = 12
	cfg.Watch.TradePageSize = 12
	cfg.Dispatch.Concurrency = 5
	cfg.Links.ExplorerTxURL = "https://tonviewer.com/transaction/%s"
	cfg.Links.GTTokenURL = "https://www.geckoterminal.com/ton/tokens/%s"
	cfg.Links.DexSTokenURL = "https://dexscreener.com/ton/%s"
	cfg.Links.TrendingURL = "https://t.me/SpyTonTrending"
	cfg.Links.BookTrendURL = "https://t.me/SpyTONTrndBot"
	cfg.Links.DtradeReferral = "https://t.me/dtrade?start=11TYq7LInG"
	cfg.DexDisplay = map[string]string{
		"stonfi_router": "STON.fi",
		"dedust_vault":  "DeDust",
	}
	cfg.Storage.Path = "buybot.db"
	cfg.Logging.Level = "info"
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return fmt.Errorf("bot token is required (BOT_TOKEN)")
	}
	if c.Chain.Decimals < 0 {
		return fmt.Errorf("chain decimals must be non-negative")
	}
	if c.Providers.TonPriceTTLSec <= 0 || c.Providers.DexDataTTLSec <= 0 {
		return fmt.Errorf("provider TTLs must be positive")
	}
	if c.Watch.PollSeconds < 5 {
		return fmt.Errorf("poll interval must be at least 5 seconds")
	}
	if c.Dispatch.Concurrency <= 0 {
		return fmt.Errorf("dispatch concurrency must be positive")
	}
	return nil
}

// overrideWithEnv overrides sensitive or deploy-specific values from the
// environment when present.
func overrideWithEnv(cfg *Config) {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Bot.Token = strings.TrimSpace(token)
	}
	if raw := os.Getenv("TRENDING_CHAT_ID"); raw != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			cfg.Bot.TrendingChatID = id
		}
	}
	if url := os.Getenv("TRENDING_URL"); url != "" {
		cfg.Links.TrendingURL = url
	}
	if path := os.Getenv("BUYBOT_DB"); path != "" {
		cfg.Storage.Path = path
	}
	// DEX_CONFIG uses the legacy "id:label,id:label" form.
	if raw := os.Getenv("DEX_CONFIG"); raw != "" {
		table := make(map[string]string)
		for _, pair := range strings.Split(raw, ",") {
			id, label, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			table[strings.TrimSpace(id)] = strings.TrimSpace(label)
		}
		if len(table) > 0 {
			cfg.DexDisplay = table
		}
	}
}
