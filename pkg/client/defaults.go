package client

import (
	"fmt"
	"os"
	"strings"

	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// DefaultRelay is used when neither config nor environment names a relay
const DefaultRelay = "wss://lunchbox.sandwich.farm"

// DefaultRelays returns the relay list, honoring a comma separated
// NOTEFEED_RELAYS override.
func DefaultRelays() []string {
	if env := strings.TrimSpace(os.Getenv("NOTEFEED_RELAYS")); env != "" {
		var out []string
		for _, r := range strings.Split(env, ",") {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{DefaultRelay}
}

// DefaultClientConfig returns a default client configuration
func DefaultClientConfig(appName string) *ClientConfig {
	return &ClientConfig{
		AppName:        appName,
		Relays:         DefaultRelays(),
		ConnectTimeout: relay.DefaultHandshakeTimeout,
		PingInterval:   relay.DefaultPingInterval,
		QuietMode:      false,
	}
}

// ValidateClientConfig validates a client configuration
func ValidateClientConfig(cfg *ClientConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.AppName == "" {
		return fmt.Errorf("app name is required")
	}

	if len(cfg.Relays) == 0 {
		return fmt.Errorf("at least one relay is required")
	}

	for i, r := range cfg.Relays {
		if _, err := relay.NormalizeURL(r); err != nil {
			return fmt.Errorf("relays[%d]: %w", i, err)
		}
	}

	if cfg.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative")
	}

	return nil
}

// normalizeRelays canonicalizes and de-duplicates relay URLs, keeping order
func normalizeRelays(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		u, err := relay.NormalizeURL(r)
		if err != nil {
			return nil, err
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out, nil
}
