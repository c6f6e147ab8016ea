package client

import (
	"context"
	"time"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// NetworkClient provides the main interface for applications to read from relays
type NetworkClient interface {
	// Lifecycle
	Connect(ctx context.Context) error
	ConnectAsync(ctx context.Context) <-chan error
	Disconnect() error
	Health() (*HealthStatus, error)

	// Subscriptions
	SubscribeAndHandle(ctx context.Context, filter nostr.Filter, handler MessageHandler, opts ...relay.SubscriptionOptions) (*Subscription, error)

	// Config access (snapshot copy)
	Config() *ClientConfig
}

// MessageHandler is called once for every event received on a subscription
type MessageHandler func(ev *nostr.Event)

// HealthStatus contains health check information
type HealthStatus struct {
	Status       string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Checks       map[string]string `json:"checks"`
	Relays       []RelayStatus     `json:"relays"`
	LastUpdated  time.Time         `json:"last_updated"`
	ResponseTime time.Duration     `json:"response_time"`
}

// RelayStatus is the connection state of one relay
type RelayStatus struct {
	URL           string `json:"url"`
	Connected     bool   `json:"connected"`
	Subscriptions int    `json:"subscriptions"`
}

// ClientConfig represents configuration for relay clients
type ClientConfig struct {
	AppName        string        `json:"app_name"`
	Relays         []string      `json:"relays"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	PingInterval   time.Duration `json:"ping_interval"`
	ProxyAddr      string        `json:"proxy_addr"` // SOCKS5 host:port; empty dials directly
	QuietMode      bool          `json:"quiet_mode"` // Suppress debug/info logs
}
