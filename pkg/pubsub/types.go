package pubsub

import "github.com/DeBrosOfficial/notefeed/pkg/nostr"

// MessageHandler is called once per event received for a filter.
// Multiple handlers can be registered for the same filter, and each
// receives every event. A returned error is logged but does not stop
// other handlers.
type MessageHandler func(ev *nostr.Event) error

// HandlerID uniquely identifies a handler registration.
// Each call to Subscribe generates a new HandlerID, so several subscribers
// to the same filter have independent lifecycles.
type HandlerID string
