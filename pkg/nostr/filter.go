package nostr

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// TagMap holds tag filters keyed by single-letter tag name (without the '#')
type TagMap map[string][]string

// Filter selects events by id, author, kind, tag and time range.
// An empty field places no constraint on events.
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []int
	Tags    TagMap
	Since   *Timestamp
	Until   *Timestamp
	Limit   int
}

// Filters is the filter list of a single REQ; an event matches if any filter matches
type Filters []Filter

// Matches reports whether ev satisfies every constraint of the filter
func (f Filter) Matches(ev *Event) bool {
	if ev == nil {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, ev.ID) {
		return false
	}
	if len(f.Authors) > 0 && !slices.Contains(f.Authors, ev.PubKey) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, ev.Kind) {
		return false
	}
	for name, values := range f.Tags {
		if !ev.Tags.ContainsAny(name, values) {
			return false
		}
	}
	if f.Since != nil && ev.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && ev.CreatedAt > *f.Until {
		return false
	}
	return true
}

// Match reports whether any filter in the list matches ev
func (fs Filters) Match(ev *Event) bool {
	for _, f := range fs {
		if f.Matches(ev) {
			return true
		}
	}
	return false
}

// Key returns a canonical identity for the filter. Two filters with the same
// constraints have the same key regardless of construction order.
func (f Filter) Key() string {
	b, err := json.Marshal(f.normalized())
	if err != nil {
		return fmt.Sprintf("%v", f)
	}
	return string(b)
}

// Key returns a canonical identity for the filter list
func (fs Filters) Key() string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key()
	}
	return "[" + strings.Join(keys, ",") + "]"
}

func (f Filter) normalized() Filter {
	n := f
	n.IDs = sortedCopy(f.IDs)
	n.Authors = sortedCopy(f.Authors)
	if f.Kinds != nil {
		n.Kinds = slices.Clone(f.Kinds)
		slices.Sort(n.Kinds)
	}
	if f.Tags != nil {
		n.Tags = make(TagMap, len(f.Tags))
		for k, v := range f.Tags {
			n.Tags[k] = sortedCopy(v)
		}
	}
	return n
}

func sortedCopy(in []string) []string {
	if in == nil {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the filter in NIP-01 form with tag filters as "#x" keys.
// Map keys are emitted in sorted order by encoding/json.
func (f Filter) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 7)
	if len(f.IDs) > 0 {
		m["ids"] = f.IDs
	}
	if len(f.Authors) > 0 {
		m["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		m["kinds"] = f.Kinds
	}
	for name, values := range f.Tags {
		m["#"+name] = values
	}
	if f.Since != nil {
		m["since"] = *f.Since
	}
	if f.Until != nil {
		m["until"] = *f.Until
	}
	if f.Limit > 0 {
		m["limit"] = f.Limit
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a NIP-01 filter object. Unknown keys are ignored.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	*f = Filter{}
	for key, value := range raw {
		var err error
		switch {
		case key == "ids":
			err = json.Unmarshal(value, &f.IDs)
		case key == "authors":
			err = json.Unmarshal(value, &f.Authors)
		case key == "kinds":
			err = json.Unmarshal(value, &f.Kinds)
		case key == "since":
			var ts Timestamp
			err = json.Unmarshal(value, &ts)
			f.Since = &ts
		case key == "until":
			var ts Timestamp
			err = json.Unmarshal(value, &ts)
			f.Until = &ts
		case key == "limit":
			err = json.Unmarshal(value, &f.Limit)
		case len(key) == 2 && key[0] == '#':
			var values []string
			err = json.Unmarshal(value, &values)
			if f.Tags == nil {
				f.Tags = make(TagMap)
			}
			f.Tags[key[1:]] = values
		}
		if err != nil {
			return fmt.Errorf("invalid filter field %q: %w", key, err)
		}
	}
	return nil
}
