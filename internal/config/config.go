package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds the simulator configuration. Values load as defaults, then
// from an optional JSON file, then from command-line flags (flags win).
type Config struct {
	ListenAddr      string        `json:"listen_addr"`
	Bots            int           `json:"bots"`
	BotInterval     time.Duration `json:"bot_interval"`
	PublishInterval time.Duration `json:"publish_interval"`
	TradeDepth      int           `json:"trade_depth"`
	EventLog        string        `json:"event_log"`
	Dashboard       bool          `json:"dashboard"`
	DashboardSymbol string        `json:"dashboard_symbol"`
	DashboardDepth  int           `json:"dashboard_depth"`
	RenderInterval  time.Duration `json:"render_interval"`
}

func Default() *Config {
	return &Config{
		ListenAddr:      "0.0.0.0:9001",
		Bots:            8,
		BotInterval:     2 * time.Millisecond,
		PublishInterval: time.Second,
		TradeDepth:      20,
		EventLog:        "events.log",
		Dashboard:       false,
		DashboardSymbol: "NVDA",
		DashboardDepth:  10,
		RenderInterval:  500 * time.Millisecond,
	}
}

// Load reads the config file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
