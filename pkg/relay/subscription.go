package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
)

// eventBuffer is the per-subscription backlog held before the reader blocks
const eventBuffer = 64

// SubscriptionOptions tune a single REQ
type SubscriptionOptions struct {
	// CloseOnEOSE sends CLOSE and ends the subscription once stored events are delivered
	CloseOnEOSE bool `json:"close_on_eose" yaml:"close_on_eose"`
	// ID overrides the generated subscription id
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Subscription is one REQ on one relay.
// Events is closed when the subscription ends; buffered events are still
// readable after that.
type Subscription struct {
	id      string
	filters nostr.Filters
	opts    SubscriptionOptions
	relay   *Relay

	events  chan *nostr.Event
	eose    chan struct{}
	closing chan struct{}

	mu       sync.RWMutex
	finished bool
	err      error

	eoseOnce   sync.Once
	closeOnce  sync.Once
	finishOnce sync.Once
	stopCtx    func() bool
}

func newSubscription(r *Relay, id string, filters nostr.Filters, opts SubscriptionOptions) *Subscription {
	return &Subscription{
		id:      id,
		filters: filters,
		opts:    opts,
		relay:   r,
		events:  make(chan *nostr.Event, eventBuffer),
		eose:    make(chan struct{}),
		closing: make(chan struct{}),
	}
}

// ID returns the subscription id sent in the REQ
func (s *Subscription) ID() string { return s.id }

// Filters returns the filters of the REQ
func (s *Subscription) Filters() nostr.Filters { return s.filters }

// Relay returns the relay URL this subscription lives on
func (s *Subscription) Relay() string { return s.relay.URL() }

// Events returns the stream of received events
func (s *Subscription) Events() <-chan *nostr.Event { return s.events }

// EOSE is closed when the relay signals the end of stored events
func (s *Subscription) EOSE() <-chan struct{} { return s.eose }

// Done is closed as soon as the subscription starts shutting down
func (s *Subscription) Done() <-chan struct{} { return s.closing }

// Err returns why the subscription ended; nil while open or after a local Close
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close sends CLOSE to the relay and ends the subscription.
// Calling Close more than once is a no-op.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		endedByRelay := s.isFinished()
		s.finish(nil)
		s.relay.removeSubscription(s.id)
		if endedByRelay {
			return
		}
		err = s.relay.send(nostr.CloseEnvelope{SubscriptionID: s.id})
		if errors.Is(err, ErrNotConnected) {
			err = nil
		}
	})
	return err
}

// bindContext ends the subscription when ctx is cancelled
func (s *Subscription) bindContext(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	s.mu.Lock()
	s.stopCtx = stop
	s.mu.Unlock()
}

// dispatchEvent is only called from the relay read loop
func (s *Subscription) dispatchEvent(ev *nostr.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.finished {
		return
	}
	select {
	case s.events <- ev:
	case <-s.closing:
	}
}

func (s *Subscription) dispatchEOSE() {
	s.eoseOnce.Do(func() { close(s.eose) })
	if s.opts.CloseOnEOSE {
		_ = s.Close()
	}
}

// finish tears down local state without talking to the relay
func (s *Subscription) finish(reason error) {
	s.finishOnce.Do(func() {
		close(s.closing)

		s.mu.Lock()
		s.finished = true
		s.err = reason
		close(s.events)
		stop := s.stopCtx
		s.mu.Unlock()

		if stop != nil {
			stop()
		}
	})
}

func (s *Subscription) isFinished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}
