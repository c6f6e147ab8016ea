package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected indicates the relay connection is not open
	ErrNotConnected = errors.New("relay not connected")

	// ErrNoRelaysConnected indicates every relay in a pool failed to connect
	ErrNoRelaysConnected = errors.New("no relays connected")

	// ErrSubscriptionClosed indicates an operation on a finished subscription
	ErrSubscriptionClosed = errors.New("subscription closed")

	// ErrConnectionLost is the close reason of subscriptions whose relay went away
	ErrConnectionLost = errors.New("relay connection lost")

	errUnsupportedScheme = errors.New("relay URL scheme must be ws or wss")
	errMissingHost       = errors.New("relay URL has no host")
)

// ClosedError is the close reason of a subscription the relay ended with CLOSED
type ClosedError struct {
	Relay  string
	Reason string
}

func (e *ClosedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("subscription closed by %s", e.Relay)
	}
	return fmt.Sprintf("subscription closed by %s: %s", e.Relay, e.Reason)
}
