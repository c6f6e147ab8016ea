package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
)

const (
	// DefaultPingInterval is how often keepalive pings are sent
	DefaultPingInterval = 30 * time.Second

	writeTimeout = 10 * time.Second
)

// Option configures a Relay
type Option func(*Relay)

// WithLogger sets the logger; the default discards output
func WithLogger(logger *zap.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDialer sets the websocket dialer used by Connect
func WithDialer(d *websocket.Dialer) Option {
	return func(r *Relay) {
		if d != nil {
			r.dialer = d
		}
	}
}

// WithPingInterval sets the keepalive interval; zero disables pings
func WithPingInterval(d time.Duration) Option {
	return func(r *Relay) { r.pingInterval = d }
}

// Relay is a websocket connection to a single relay
type Relay struct {
	url          string
	dialer       *websocket.Dialer
	logger       *zap.Logger
	pingInterval time.Duration

	connectMu sync.Mutex

	mu            sync.RWMutex
	conn          *websocket.Conn
	connected     bool
	done          chan struct{}
	subscriptions map[string]*Subscription

	writeMu sync.Mutex
}

// New creates a relay handle; no connection is made until Connect
func New(url string, opts ...Option) *Relay {
	r := &Relay{
		url:           url,
		dialer:        NewDialer(""),
		logger:        zap.NewNop(),
		pingInterval:  DefaultPingInterval,
		subscriptions: make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("relay", url))
	return r
}

// URL returns the relay address
func (r *Relay) URL() string { return r.url }

// IsConnected reports whether the websocket is open
func (r *Relay) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// Connect dials the relay. It is a no-op when already connected.
func (r *Relay) Connect(ctx context.Context) error {
	r.connectMu.Lock()
	defer r.connectMu.Unlock()

	if r.IsConnected() {
		return nil
	}

	conn, resp, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to dial %s (status %d): %w", r.url, resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial %s: %w", r.url, err)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.conn = conn
	r.connected = true
	r.done = done
	r.mu.Unlock()

	go r.readLoop(conn, done)
	if r.pingInterval > 0 {
		go r.keepalive(conn, done)
	}

	r.logger.Info("Relay connected")
	return nil
}

// Close closes the connection and ends every open subscription
func (r *Relay) Close() error {
	r.mu.RLock()
	conn := r.conn
	connected := r.connected
	r.mu.RUnlock()

	if !connected || conn == nil {
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	r.teardown(conn, nil)
	r.logger.Info("Relay disconnected")
	return nil
}

// Subscribe sends a REQ for filters and returns the live subscription.
// Cancelling ctx closes the subscription.
func (r *Relay) Subscribe(ctx context.Context, filters nostr.Filters, opts SubscriptionOptions) (*Subscription, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("at least one filter is required")
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}

	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return nil, ErrNotConnected
	}
	if _, exists := r.subscriptions[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("subscription %q already exists", id)
	}
	sub := newSubscription(r, id, filters, opts)
	r.subscriptions[id] = sub
	r.mu.Unlock()

	if err := r.send(nostr.ReqEnvelope{SubscriptionID: id, Filters: filters}); err != nil {
		r.removeSubscription(id)
		sub.finish(err)
		return nil, fmt.Errorf("failed to send REQ: %w", err)
	}

	sub.bindContext(ctx)

	r.logger.Debug("Subscription opened",
		zap.String("subscription_id", id),
		zap.String("filters", filters.Key()),
		zap.Bool("close_on_eose", opts.CloseOnEOSE))

	return sub, nil
}

// Subscriptions returns the ids of the open subscriptions
func (r *Relay) Subscriptions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.subscriptions))
	for id := range r.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

func (r *Relay) send(v any) error {
	r.mu.RLock()
	conn := r.conn
	connected := r.connected
	r.mu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

func (r *Relay) subscription(id string) *Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subscriptions[id]
}

func (r *Relay) removeSubscription(id string) {
	r.mu.Lock()
	delete(r.subscriptions, id)
	r.mu.Unlock()
}

func (r *Relay) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				r.logger.Warn("Relay connection closed", zap.Error(err))
			}
			r.teardown(conn, ErrConnectionLost)
			return
		}

		env, err := nostr.ParseEnvelope(data)
		if err != nil {
			r.logger.Debug("Ignoring relay message", zap.Error(err))
			continue
		}
		r.dispatch(env)
	}
}

func (r *Relay) dispatch(env nostr.Envelope) {
	switch env := env.(type) {
	case nostr.EventEnvelope:
		if sub := r.subscription(env.SubscriptionID); sub != nil {
			ev := env.Event
			sub.dispatchEvent(&ev)
		}
	case nostr.EOSEEnvelope:
		if sub := r.subscription(env.SubscriptionID); sub != nil {
			sub.dispatchEOSE()
		}
	case nostr.ClosedEnvelope:
		if sub := r.subscription(env.SubscriptionID); sub != nil {
			r.removeSubscription(env.SubscriptionID)
			sub.finish(&ClosedError{Relay: r.url, Reason: env.Reason})
			r.logger.Info("Subscription closed by relay",
				zap.String("subscription_id", env.SubscriptionID),
				zap.String("reason", env.Reason))
		}
	case nostr.NoticeEnvelope:
		r.logger.Warn("Relay notice", zap.String("message", env.Message))
	case nostr.OKEnvelope:
		r.logger.Debug("Relay OK",
			zap.String("event_id", env.EventID),
			zap.Bool("ok", env.OK),
			zap.String("reason", env.Reason))
	case nostr.AuthEnvelope:
		r.logger.Debug("Relay requested authentication, ignoring")
	}
}

func (r *Relay) keepalive(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(r.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				r.logger.Debug("Ping failed", zap.Error(err))
			}
		}
	}
}

// teardown marks conn as gone and ends its subscriptions. Only the first
// call for a given conn has any effect.
func (r *Relay) teardown(conn *websocket.Conn, reason error) {
	r.mu.Lock()
	if r.conn != conn || !r.connected {
		r.mu.Unlock()
		return
	}
	r.connected = false
	r.conn = nil
	close(r.done)
	subs := r.subscriptions
	r.subscriptions = make(map[string]*Subscription)
	r.mu.Unlock()

	_ = conn.Close()
	for _, sub := range subs {
		sub.finish(reason)
	}
	r.logger.Debug("Relay torn down", zap.Int("subscriptions", len(subs)))
}
