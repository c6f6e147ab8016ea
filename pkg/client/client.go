package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
	"github.com/DeBrosOfficial/notefeed/pkg/pubsub"
	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

var _ NetworkClient = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithLogger replaces the logger built from QuietMode
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client implements the NetworkClient interface
type Client struct {
	config *ClientConfig
	logger *zap.Logger

	// Network components, set once connected
	pool   *relay.Pool
	pubsub *pubsub.Manager

	// State
	connectMu   sync.Mutex
	connected   bool
	startTime   time.Time
	connectedAt time.Time
	mu          sync.RWMutex
}

// NewClient creates a new relay client. No connection is made until Connect.
func NewClient(config *ClientConfig, opts ...Option) (*Client, error) {
	if err := ValidateClientConfig(config); err != nil {
		return nil, NewClientError("new", "invalid client config", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}

	cfg := *config
	cfg.Relays = append([]string(nil), config.Relays...)

	client := &Client{
		config:    &cfg,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.logger == nil {
		logger, err := newClientLogger(config.QuietMode)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		client.logger = logger
	}

	return client, nil
}

// Config returns a snapshot copy of the client's configuration
func (c *Client) Config() *ClientConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := *c.config
	cp.Relays = append([]string(nil), c.config.Relays...)
	return &cp
}

// Connect dials every configured relay and succeeds when at least one
// connects. It is a no-op when already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.isConnected() {
		return nil
	}

	cfg := c.Config()
	relays, err := normalizeRelays(cfg.Relays)
	if err != nil {
		return NewClientError("connect", "invalid relay url", err)
	}

	pool := relay.NewPool(relays, c.logger.Named("relay"),
		relay.WithDialer(relay.NewDialer(cfg.ProxyAddr)),
		relay.WithPingInterval(cfg.PingInterval),
	)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	c.logger.Info("Connecting to relays",
		zap.Strings("relays", relays),
		zap.Bool("proxy", cfg.ProxyAddr != ""))

	if err := pool.Connect(ctx); err != nil {
		return NewClientError("connect", "failed to connect to relays", err)
	}

	c.mu.Lock()
	c.pool = pool
	c.pubsub = pubsub.NewManager(pool, c.logger.Named("pubsub"))
	c.connected = true
	c.connectedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("Client connected",
		zap.String("app", cfg.AppName),
		zap.Int("relays", len(pool.Connected())))

	return nil
}

// ConnectAsync runs Connect in the background and reports its result on the
// returned channel, which is closed afterwards. The outcome is logged; a
// failure is not retried.
func (c *Client) ConnectAsync(ctx context.Context) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		err := c.Connect(ctx)
		if err != nil {
			c.logger.Error("failed to connect to relays", zap.Error(err))
		} else {
			c.logger.Info("connected to relays")
		}
		result <- err
	}()
	return result
}

// Disconnect closes every subscription and relay connection
func (c *Client) Disconnect() error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	mgr, pool := c.pubsub, c.pool
	c.pubsub = nil
	c.pool = nil
	c.connected = false
	c.mu.Unlock()

	if err := mgr.Close(); err != nil {
		c.logger.Error("Failed to close subscriptions", zap.Error(err))
	}
	if err := pool.Close(); err != nil {
		c.logger.Error("Failed to close relay pool", zap.Error(err))
	}

	c.logger.Info("Client disconnected")

	return nil
}

// Health returns the current health status
func (c *Client) Health() (*HealthStatus, error) {
	start := time.Now()

	c.mu.RLock()
	connected := c.connected
	pool := c.pool
	mgr := c.pubsub
	connectedAt := c.connectedAt
	relays := append([]string(nil), c.config.Relays...)
	c.mu.RUnlock()

	checks := map[string]string{
		"connection":    "ok",
		"subscriptions": "0",
	}

	var statuses []RelayStatus
	up := 0
	if pool != nil {
		for _, r := range pool.Relays() {
			rs := RelayStatus{
				URL:           r.URL(),
				Connected:     r.IsConnected(),
				Subscriptions: len(r.Subscriptions()),
			}
			if rs.Connected {
				up++
			}
			statuses = append(statuses, rs)
		}
	} else {
		for _, u := range relays {
			statuses = append(statuses, RelayStatus{URL: u})
		}
	}
	checks["relays"] = fmt.Sprintf("%d/%d connected", up, len(statuses))
	if mgr != nil {
		checks["subscriptions"] = fmt.Sprintf("%d", len(mgr.ListFilters()))
	}
	if connected {
		checks["uptime"] = time.Since(connectedAt).Truncate(time.Second).String()
	}

	status := "healthy"
	switch {
	case !connected || up == 0:
		status = "unhealthy"
		checks["connection"] = "disconnected"
	case up < len(statuses):
		status = "degraded"
	}

	return &HealthStatus{
		Status:       status,
		Checks:       checks,
		Relays:       statuses,
		LastUpdated:  time.Now(),
		ResponseTime: time.Since(start),
	}, nil
}

// SubscribeAndHandle opens a subscription for filter and calls handler for
// every received event, in arrival order. Events are passed through as
// received: there is no retry, de-duplication or buffering beyond the relay
// layer. Cancelling ctx or calling Close on the result ends the subscription.
func (c *Client) SubscribeAndHandle(ctx context.Context, filter nostr.Filter, handler MessageHandler, opts ...relay.SubscriptionOptions) (*Subscription, error) {
	if handler == nil {
		return nil, NewClientError("subscribe", "handler is required", nil)
	}

	c.mu.RLock()
	mgr := c.pubsub
	connected := c.connected
	c.mu.RUnlock()

	if !connected || mgr == nil {
		return nil, NewClientError("subscribe", "relays not connected", ErrNotConnected)
	}

	var o relay.SubscriptionOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	reg, err := mgr.Subscribe(ctx, nostr.Filters{filter}, func(ev *nostr.Event) error {
		handler(ev)
		return nil
	}, o)
	if err != nil {
		return nil, NewClientError("subscribe", "failed to subscribe", err)
	}

	return &Subscription{reg: reg, filter: filter}, nil
}

// isConnected checks if the client is connected
func (c *Client) isConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Subscription is one handler registered through SubscribeAndHandle
type Subscription struct {
	reg    *pubsub.Registration
	filter nostr.Filter
}

// ID returns the handler registration id
func (s *Subscription) ID() string { return string(s.reg.ID()) }

// Filter returns the subscribed filter
func (s *Subscription) Filter() nostr.Filter { return s.filter }

// Done is closed once the handler will receive no more events
func (s *Subscription) Done() <-chan struct{} { return s.reg.Done() }

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() error { return s.reg.Close() }
