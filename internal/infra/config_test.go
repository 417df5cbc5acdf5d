package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
bot:
  token: "12345:abcdef"
  trending_chat_id: -100123
chain:
  decimals: 6
watch:
  poll_seconds: 30
dex_display:
  stonfi_router: "STON.fi"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Bot.Token != "12345:abcdef" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if cfg.Bot.TrendingChatID != -100123 {
		t.Errorf("trending chat = %d", cfg.Bot.TrendingChatID)
	}
	if cfg.Chain.Decimals != 6 {
		t.Errorf("decimals = %d, want file override 6", cfg.Chain.Decimals)
	}
	if cfg.Watch.PollSeconds != 30 {
		t.Errorf("poll = %d", cfg.Watch.PollSeconds)
	}

	t.Run("untouched fields keep defaults", func(t *testing.T) {
		if cfg.Providers.TonPriceTTLSec != 60 {
			t.Errorf("ton price ttl = %d, want 60", cfg.Providers.TonPriceTTLSec)
		}
		if cfg.Providers.DexDataTTLSec != 20 {
			t.Errorf("dex data ttl = %d, want 20", cfg.Providers.DexDataTTLSec)
		}
		if cfg.Storage.Path != "buybot.db" {
			t.Errorf("storage path = %q", cfg.Storage.Path)
		}
	})
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Bot.Token != "env-token" {
		t.Errorf("token = %q, want env override", cfg.Bot.Token)
	}
	if cfg.Chain.Network != "ton" || cfg.Chain.Decimals != 9 {
		t.Errorf("chain defaults = %s/%d", cfg.Chain.Network, cfg.Chain.Decimals)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
bot:
  token: "file-token"
`)

	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("TRENDING_CHAT_ID", "-100777")
	t.Setenv("DEX_CONFIG", "dedust_vault:DeDust, stonfi_router:STON.fi")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Bot.Token != "env-token" {
		t.Errorf("token = %q, env should win over file", cfg.Bot.Token)
	}
	if cfg.Bot.TrendingChatID != -100777 {
		t.Errorf("trending chat = %d", cfg.Bot.TrendingChatID)
	}
	if cfg.DexDisplay["stonfi_router"] != "STON.fi" || cfg.DexDisplay["dedust_vault"] != "DeDust" {
		t.Errorf("dex display = %v", cfg.DexDisplay)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		var cfg Config
		applyDefaults(&cfg)
		cfg.Bot.Token = "12345:abcdef"
		return &cfg
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("default config with token should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Bot.Token = "  " }},
		{"negative decimals", func(c *Config) { c.Chain.Decimals = -1 }},
		{"zero ttl", func(c *Config) { c.Providers.TonPriceTTLSec = 0 }},
		{"too fast poll", func(c *Config) { c.Watch.PollSeconds = 1 }},
		{"zero concurrency", func(c *Config) { c.Dispatch.Concurrency = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
