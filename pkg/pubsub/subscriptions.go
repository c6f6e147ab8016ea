package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// ErrManagerClosed is returned by Subscribe after Close
var ErrManagerClosed = errors.New("pubsub manager closed")

// Registration is a single handler registered with Subscribe
type Registration struct {
	id      HandlerID
	filters nostr.Filters
	done    <-chan struct{}
	manager *Manager
	once    sync.Once
}

// ID returns the handler id
func (r *Registration) ID() HandlerID { return r.id }

// Filters returns the filters the handler was registered for
func (r *Registration) Filters() nostr.Filters { return r.filters }

// Done is closed when the handler stops receiving events, either because it
// was unsubscribed or because the upstream subscription ended
func (r *Registration) Done() <-chan struct{} { return r.done }

// Close unregisters the handler
func (r *Registration) Close() error {
	var err error
	r.once.Do(func() {
		err = r.manager.Unsubscribe(r.id)
	})
	return err
}

func generateHandlerID() HandlerID {
	return HandlerID(uuid.New().String())
}

// subscriptionKey identifies shareable subscriptions. Subscriptions that end
// on EOSE or carry an explicit id are never shared.
func subscriptionKey(filters nostr.Filters, opts relay.SubscriptionOptions, id HandlerID) string {
	if opts.CloseOnEOSE || opts.ID != "" {
		return fmt.Sprintf("%s|%s", filters.Key(), id)
	}
	return filters.Key()
}

// Subscribe registers handler for events matching filters.
// The first handler for a filter opens one relay subscription; later handlers
// for the same filter share it and only see events received after they joined.
// Cancelling ctx unregisters the handler.
func (m *Manager) Subscribe(ctx context.Context, filters nostr.Filters, handler MessageHandler, opts relay.SubscriptionOptions) (*Registration, error) {
	if m.pool == nil {
		return nil, fmt.Errorf("pubsub not initialized")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("at least one filter is required")
	}

	handlerID := generateHandlerID()
	key := subscriptionKey(filters, opts, handlerID)
	h := &registeredHandler{fn: handler, done: make(chan struct{})}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}

	entry, exists := m.subscriptions[key]
	if exists {
		// Add handler to existing subscription
		entry.mu.Lock()
		entry.handlers[handlerID] = h
		entry.refCount++
		entry.mu.Unlock()
		m.handlerIndex[handlerID] = key
		m.mu.Unlock()
	} else {
		// The upstream subscription outlives the caller's context; it is
		// released when the last handler goes.
		sub, err := m.pool.Subscribe(context.Background(), filters, opts)
		if err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
		entry = &filterSubscription{
			key:      key,
			sub:      sub,
			handlers: map[HandlerID]*registeredHandler{handlerID: h},
			refCount: 1,
		}
		m.subscriptions[key] = entry
		m.handlerIndex[handlerID] = key
		m.mu.Unlock()

		m.logger.Debug("Opened filter subscription",
			zap.String("filters", filters.Key()),
			zap.String("subscription_id", sub.ID()),
			zap.Strings("relays", sub.Relays()))

		go m.fanOut(entry)
	}

	reg := &Registration{
		id:      handlerID,
		filters: filters,
		done:    h.done,
		manager: m,
	}
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() { _ = reg.Close() })
		go func() {
			<-h.done
			stop()
		}()
	}
	return reg, nil
}

// fanOut delivers every upstream event to all handlers of the entry
func (m *Manager) fanOut(entry *filterSubscription) {
	for ev := range entry.sub.Events() {
		entry.mu.RLock()
		handlers := make([]*registeredHandler, 0, len(entry.handlers))
		for _, h := range entry.handlers {
			handlers = append(handlers, h)
		}
		entry.mu.RUnlock()

		for _, h := range handlers {
			if err := h.fn(ev); err != nil {
				m.logger.Warn("Event handler failed",
					zap.String("event_id", ev.ID),
					zap.Error(err))
			}
		}
	}
	m.release(entry)
}

// release drops an entry whose upstream subscription has ended
func (m *Manager) release(entry *filterSubscription) {
	m.mu.Lock()
	if current, ok := m.subscriptions[entry.key]; ok && current == entry {
		delete(m.subscriptions, entry.key)
	}
	entry.mu.Lock()
	for id, h := range entry.handlers {
		delete(m.handlerIndex, id)
		h.finish()
	}
	entry.handlers = make(map[HandlerID]*registeredHandler)
	entry.refCount = 0
	entry.mu.Unlock()
	m.mu.Unlock()

	m.logger.Debug("Filter subscription ended", zap.String("subscription_id", entry.sub.ID()))
}

// Unsubscribe removes one handler. The upstream subscription is only
// closed when its last handler is removed. Unknown ids are ignored.
func (m *Manager) Unsubscribe(id HandlerID) error {
	m.mu.Lock()
	key, ok := m.handlerIndex[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.handlerIndex, id)

	var toClose *relay.MultiSubscription
	if entry, exists := m.subscriptions[key]; exists {
		entry.mu.Lock()
		if h, found := entry.handlers[id]; found {
			delete(entry.handlers, id)
			h.finish()
			entry.refCount--
		}
		shouldCancel := entry.refCount <= 0
		entry.mu.Unlock()

		if shouldCancel {
			delete(m.subscriptions, key)
			toClose = entry.sub
		}
	}
	m.mu.Unlock()

	if toClose != nil {
		return toClose.Close()
	}
	return nil
}

// ListFilters returns the filter keys of every active upstream subscription
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filters := make([]string, 0, len(m.subscriptions))
	for _, entry := range m.subscriptions {
		filters = append(filters, entry.sub.Filters().Key())
	}
	sort.Strings(filters)
	return filters
}

// Close unregisters every handler and closes all subscriptions
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	entries := make([]*filterSubscription, 0, len(m.subscriptions))
	for _, entry := range m.subscriptions {
		entries = append(entries, entry)
	}
	m.subscriptions = make(map[string]*filterSubscription)
	m.handlerIndex = make(map[HandlerID]string)
	m.mu.Unlock()

	var errs []error
	for _, entry := range entries {
		entry.mu.Lock()
		for _, h := range entry.handlers {
			h.finish()
		}
		entry.mu.Unlock()
		if err := entry.sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
