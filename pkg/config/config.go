package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Config represents the main configuration for notefeed
type Config struct {
	Relays       []string           `yaml:"relays"`
	Connection   ConnectionConfig   `yaml:"connection"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Display      DisplayConfig      `yaml:"display"`
	Proxy        ProxyConfig        `yaml:"proxy"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ConnectionConfig contains relay connection settings
type ConnectionConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // 0 waits for the dial to finish
	PingInterval   time.Duration `yaml:"ping_interval"`   // 0 disables keepalive pings
}

// SubscriptionConfig describes the feed filter
type SubscriptionConfig struct {
	Kinds       []int  `yaml:"kinds"`
	Author      string `yaml:"author"`        // hex or npub; empty for everyone
	Limit       int    `yaml:"limit"`         // stored events requested; 0 lets the relay decide
	CloseOnEOSE bool   `yaml:"close_on_eose"` // false keeps following live events
}

// DisplayConfig selects the renderers
type DisplayConfig struct {
	TUI      bool   `yaml:"tui"`
	HTTPAddr string `yaml:"http_addr"` // e.g. "127.0.0.1:8089"; empty disables the page
}

// ProxyConfig routes relay connections through a SOCKS5 proxy
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	SOCKS5  string `yaml:"socks5"` // host:port
}

// DefaultRelay is the relay used when none is configured
const DefaultRelay = "wss://lunchbox.sandwich.farm"

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Relays: []string{DefaultRelay},
		Connection: ConnectionConfig{
			ConnectTimeout: 15 * time.Second,
			PingInterval:   30 * time.Second,
		},
		Subscription: SubscriptionConfig{
			Kinds:       []int{1},
			CloseOnEOSE: true,
		},
		Display: DisplayConfig{
			TUI: true,
		},
		Proxy: ProxyConfig{
			Enabled: false,
			SOCKS5:  "127.0.0.1:9050",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFile reads a YAML config on top of the defaults. Keys absent from the
// file keep their default values.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like LoadFile but returns the defaults when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}
