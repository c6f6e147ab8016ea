package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
)

// Pool is a fixed set of relays addressed as one
type Pool struct {
	relays []*Relay
	logger *zap.Logger
}

// NewPool creates a relay handle for every URL. Options apply to every relay.
func NewPool(urls []string, logger *zap.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	relays := make([]*Relay, 0, len(urls))
	for _, u := range urls {
		relayOpts := append([]Option{WithLogger(logger)}, opts...)
		relays = append(relays, New(u, relayOpts...))
	}
	return &Pool{relays: relays, logger: logger}
}

// Relays returns every relay in the pool
func (p *Pool) Relays() []*Relay {
	return append([]*Relay(nil), p.relays...)
}

// Connected returns the relays with an open connection
func (p *Pool) Connected() []*Relay {
	var out []*Relay
	for _, r := range p.relays {
		if r.IsConnected() {
			out = append(out, r)
		}
	}
	return out
}

// Connect dials every relay concurrently. It succeeds when at least one relay
// connects; failures of the others are logged.
func (p *Pool) Connect(ctx context.Context) error {
	if len(p.relays) == 0 {
		return ErrNoRelaysConnected
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, r := range p.relays {
		wg.Add(1)
		go func(r *Relay) {
			defer wg.Done()
			if err := r.Connect(ctx); err != nil {
				p.logger.Warn("Failed to connect to relay",
					zap.String("relay", r.URL()),
					zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(r)
	}
	wg.Wait()

	if len(errs) == len(p.relays) {
		return errors.Join(append([]error{ErrNoRelaysConnected}, errs...)...)
	}

	p.logger.Info("Relay pool connected",
		zap.Int("connected", len(p.relays)-len(errs)),
		zap.Int("total", len(p.relays)))
	return nil
}

// Close disconnects every relay
func (p *Pool) Close() error {
	var errs []error
	for _, r := range p.relays {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe opens the same REQ on every connected relay and merges the results
func (p *Pool) Subscribe(ctx context.Context, filters nostr.Filters, opts SubscriptionOptions) (*MultiSubscription, error) {
	relays := p.Connected()
	if len(relays) == 0 {
		return nil, ErrNotConnected
	}
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}

	var (
		subs []*Subscription
		errs []error
	)
	for _, r := range relays {
		sub, err := r.Subscribe(ctx, filters, opts)
		if err != nil {
			p.logger.Warn("Failed to subscribe on relay",
				zap.String("relay", r.URL()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", r.URL(), err))
			continue
		}
		subs = append(subs, sub)
	}
	if len(subs) == 0 {
		return nil, errors.Join(errs...)
	}

	return newMultiSubscription(opts.ID, filters, subs), nil
}

// MultiSubscription merges one subscription per relay into a single stream.
// Events are forwarded as received; duplicates across relays are not removed.
type MultiSubscription struct {
	id      string
	filters nostr.Filters
	subs    []*Subscription

	events  chan *nostr.Event
	eose    chan struct{}
	closing chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

func newMultiSubscription(id string, filters nostr.Filters, subs []*Subscription) *MultiSubscription {
	m := &MultiSubscription{
		id:      id,
		filters: filters,
		subs:    subs,
		events:  make(chan *nostr.Event, eventBuffer),
		eose:    make(chan struct{}),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	var forwarders sync.WaitGroup
	for _, sub := range subs {
		forwarders.Add(1)
		go m.forward(sub, &forwarders)
	}

	go func() {
		for _, sub := range subs {
			select {
			case <-sub.EOSE():
			case <-sub.Done():
			}
		}
		close(m.eose)
	}()

	go func() {
		forwarders.Wait()
		close(m.events)
		close(m.done)
	}()

	return m
}

func (m *MultiSubscription) forward(sub *Subscription, wg *sync.WaitGroup) {
	defer wg.Done()
	for ev := range sub.Events() {
		select {
		case m.events <- ev:
		case <-m.closing:
			return
		}
	}
}

// ID returns the subscription id shared by every relay
func (m *MultiSubscription) ID() string { return m.id }

// Filters returns the subscription filters
func (m *MultiSubscription) Filters() nostr.Filters { return m.filters }

// Events returns the merged event stream; it is closed once every relay
// subscription has ended
func (m *MultiSubscription) Events() <-chan *nostr.Event { return m.events }

// EOSE is closed once every relay has sent EOSE or ended its subscription
func (m *MultiSubscription) EOSE() <-chan struct{} { return m.eose }

// Done is closed after the merged stream has been closed
func (m *MultiSubscription) Done() <-chan struct{} { return m.done }

// Relays returns the URLs this subscription is open on
func (m *MultiSubscription) Relays() []string {
	out := make([]string, len(m.subs))
	for i, s := range m.subs {
		out[i] = s.Relay()
	}
	return out
}

// Close ends the subscription on every relay
func (m *MultiSubscription) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		close(m.closing)
		for _, s := range m.subs {
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
