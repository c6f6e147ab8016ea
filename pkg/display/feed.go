// Package display renders the most recently received event of a feed.
package display

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
)

// EmptyState is what Render returns before any event has arrived
const EmptyState = "{}"

// Feed holds the latest event delivered to it. Every new event replaces the
// previous one; nothing older is kept.
type Feed struct {
	mu       sync.RWMutex
	latest   *nostr.Event
	rendered string
	count    int
	updated  time.Time

	notify chan struct{}
	logger *zap.Logger
}

// Snapshot is a consistent read of the feed state
type Snapshot struct {
	Event    *nostr.Event
	Rendered string
	Count    int
	Updated  time.Time
}

// NewFeed creates an empty feed
func NewFeed(logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		rendered: EmptyState,
		notify:   make(chan struct{}, 1),
		logger:   logger,
	}
}

// Handle replaces the latest event. Its signature matches client.MessageHandler.
func (f *Feed) Handle(ev *nostr.Event) {
	if ev == nil {
		return
	}

	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		f.logger.Warn("Failed to render event", zap.String("event_id", ev.ID), zap.Error(err))
		return
	}

	f.mu.Lock()
	f.latest = ev
	f.rendered = string(data)
	f.count++
	f.updated = time.Now()
	f.mu.Unlock()

	f.logger.Debug("Feed updated", zap.String("event_id", ev.ID), zap.String("pubkey", ev.PubKey))

	// Coalesce: a pending signal already covers this update
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Render returns the latest event as indented JSON, or EmptyState
func (f *Feed) Render() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rendered
}

// Latest returns the latest event, or nil
func (f *Feed) Latest() *nostr.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest
}

// Snapshot returns the current state under one lock
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Snapshot{
		Event:    f.latest,
		Rendered: f.rendered,
		Count:    f.count,
		Updated:  f.updated,
	}
}

// Updates receives a value after one or more calls to Handle. Bursts collapse
// into a single signal, so readers should re-read the feed instead of counting.
func (f *Feed) Updates() <-chan struct{} {
	return f.notify
}
