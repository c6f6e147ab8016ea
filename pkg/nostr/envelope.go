package nostr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope labels defined by NIP-01 and NIP-42
const (
	LabelEvent  = "EVENT"
	LabelReq    = "REQ"
	LabelClose  = "CLOSE"
	LabelEOSE   = "EOSE"
	LabelNotice = "NOTICE"
	LabelClosed = "CLOSED"
	LabelOK     = "OK"
	LabelAuth   = "AUTH"
)

var (
	// ErrUnknownEnvelope is returned for a message whose label is not recognized
	ErrUnknownEnvelope = errors.New("unknown envelope label")

	// ErrMalformedEnvelope is returned for a message with the wrong shape
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is a single websocket message exchanged with a relay
type Envelope interface {
	Label() string
}

// EventEnvelope carries an event. SubscriptionID is empty when a client
// publishes an event and set when a relay delivers one.
type EventEnvelope struct {
	SubscriptionID string
	Event          Event
}

// ReqEnvelope opens a subscription
type ReqEnvelope struct {
	SubscriptionID string
	Filters        Filters
}

// CloseEnvelope ends a subscription
type CloseEnvelope struct {
	SubscriptionID string
}

// EOSEEnvelope marks the end of stored events for a subscription
type EOSEEnvelope struct {
	SubscriptionID string
}

// NoticeEnvelope is a human readable message from the relay
type NoticeEnvelope struct {
	Message string
}

// ClosedEnvelope reports that the relay ended a subscription
type ClosedEnvelope struct {
	SubscriptionID string
	Reason         string
}

// OKEnvelope acknowledges a published event
type OKEnvelope struct {
	EventID string
	OK      bool
	Reason  string
}

// AuthEnvelope carries a NIP-42 challenge
type AuthEnvelope struct {
	Challenge string
}

func (EventEnvelope) Label() string  { return LabelEvent }
func (ReqEnvelope) Label() string    { return LabelReq }
func (CloseEnvelope) Label() string  { return LabelClose }
func (EOSEEnvelope) Label() string   { return LabelEOSE }
func (NoticeEnvelope) Label() string { return LabelNotice }
func (ClosedEnvelope) Label() string { return LabelClosed }
func (OKEnvelope) Label() string     { return LabelOK }
func (AuthEnvelope) Label() string   { return LabelAuth }

func (e EventEnvelope) MarshalJSON() ([]byte, error) {
	if e.SubscriptionID == "" {
		return json.Marshal([]any{LabelEvent, e.Event})
	}
	return json.Marshal([]any{LabelEvent, e.SubscriptionID, e.Event})
}

func (e ReqEnvelope) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, 2+len(e.Filters))
	arr = append(arr, LabelReq, e.SubscriptionID)
	for _, f := range e.Filters {
		arr = append(arr, f)
	}
	return json.Marshal(arr)
}

func (e CloseEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{LabelClose, e.SubscriptionID})
}

func (e EOSEEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{LabelEOSE, e.SubscriptionID})
}

func (e NoticeEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{LabelNotice, e.Message})
}

func (e ClosedEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{LabelClosed, e.SubscriptionID, e.Reason})
}

func (e OKEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{LabelOK, e.EventID, e.OK, e.Reason})
}

func (e AuthEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{LabelAuth, e.Challenge})
}

// ParseEnvelope decodes a raw relay or client message
func ParseEnvelope(data []byte) (Envelope, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 elements, got %d", ErrMalformedEnvelope, len(parts))
	}

	var label string
	if err := json.Unmarshal(parts[0], &label); err != nil {
		return nil, fmt.Errorf("%w: label: %v", ErrMalformedEnvelope, err)
	}

	switch label {
	case LabelEvent:
		var env EventEnvelope
		evRaw := parts[1]
		if len(parts) >= 3 {
			if err := json.Unmarshal(parts[1], &env.SubscriptionID); err != nil {
				return nil, fmt.Errorf("%w: subscription id: %v", ErrMalformedEnvelope, err)
			}
			evRaw = parts[2]
		}
		if err := json.Unmarshal(evRaw, &env.Event); err != nil {
			return nil, fmt.Errorf("%w: event: %v", ErrMalformedEnvelope, err)
		}
		return env, nil

	case LabelReq:
		var env ReqEnvelope
		if err := json.Unmarshal(parts[1], &env.SubscriptionID); err != nil {
			return nil, fmt.Errorf("%w: subscription id: %v", ErrMalformedEnvelope, err)
		}
		for _, raw := range parts[2:] {
			var f Filter
			if err := json.Unmarshal(raw, &f); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
			}
			env.Filters = append(env.Filters, f)
		}
		return env, nil

	case LabelClose:
		var env CloseEnvelope
		if err := json.Unmarshal(parts[1], &env.SubscriptionID); err != nil {
			return nil, fmt.Errorf("%w: subscription id: %v", ErrMalformedEnvelope, err)
		}
		return env, nil

	case LabelEOSE:
		var env EOSEEnvelope
		if err := json.Unmarshal(parts[1], &env.SubscriptionID); err != nil {
			return nil, fmt.Errorf("%w: subscription id: %v", ErrMalformedEnvelope, err)
		}
		return env, nil

	case LabelNotice:
		var env NoticeEnvelope
		if err := json.Unmarshal(parts[1], &env.Message); err != nil {
			return nil, fmt.Errorf("%w: notice: %v", ErrMalformedEnvelope, err)
		}
		return env, nil

	case LabelClosed:
		var env ClosedEnvelope
		if err := json.Unmarshal(parts[1], &env.SubscriptionID); err != nil {
			return nil, fmt.Errorf("%w: subscription id: %v", ErrMalformedEnvelope, err)
		}
		if len(parts) >= 3 {
			_ = json.Unmarshal(parts[2], &env.Reason)
		}
		return env, nil

	case LabelOK:
		if len(parts) < 3 {
			return nil, fmt.Errorf("%w: OK needs at least 3 elements", ErrMalformedEnvelope)
		}
		var env OKEnvelope
		if err := json.Unmarshal(parts[1], &env.EventID); err != nil {
			return nil, fmt.Errorf("%w: event id: %v", ErrMalformedEnvelope, err)
		}
		if err := json.Unmarshal(parts[2], &env.OK); err != nil {
			return nil, fmt.Errorf("%w: ok flag: %v", ErrMalformedEnvelope, err)
		}
		if len(parts) >= 4 {
			_ = json.Unmarshal(parts[3], &env.Reason)
		}
		return env, nil

	case LabelAuth:
		var env AuthEnvelope
		if err := json.Unmarshal(parts[1], &env.Challenge); err != nil {
			// clients answer AUTH with an event object, not a challenge string
			return nil, fmt.Errorf("%w: challenge: %v", ErrMalformedEnvelope, err)
		}
		return env, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEnvelope, label)
}
