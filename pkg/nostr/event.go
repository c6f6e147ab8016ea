package nostr

import (
	"encoding/json"
	"time"
)

// Event kinds used by this application
const (
	KindMetadata = 0
	KindTextNote = 1
	KindReaction = 7
)

// Timestamp is a unix timestamp in seconds, as carried on the wire
type Timestamp int64

// Time converts the timestamp to a time.Time
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// Tag is a single tag, e.g. ["p", "<pubkey>", "wss://relay"]
type Tag []string

// Key returns the tag name or "" for an empty tag
func (t Tag) Key() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the first tag value or "" if absent
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Tags is the tag list of an event
type Tags []Tag

// ContainsAny reports whether a tag named key has one of the given values
func (tags Tags) ContainsAny(key string, values []string) bool {
	for _, t := range tags {
		if t.Key() != key || len(t) < 2 {
			continue
		}
		for _, v := range values {
			if t[1] == v {
				return true
			}
		}
	}
	return false
}

// MarshalJSON always emits an array; relays reject a null tag list.
func (tags Tags) MarshalJSON() ([]byte, error) {
	if tags == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Tag(tags))
}

// Event is a signed record received from a relay.
// The JSON form is the NIP-01 representation.
type Event struct {
	ID        string    `json:"id"`
	PubKey    string    `json:"pubkey"`
	CreatedAt Timestamp `json:"created_at"`
	Kind      int       `json:"kind"`
	Tags      Tags      `json:"tags"`
	Content   string    `json:"content"`
	Sig       string    `json:"sig"`
}

// String returns the compact JSON form of the event
func (e Event) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(b)
}
