package display

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
	"github.com/DeBrosOfficial/notefeed/pkg/nostr/nostrtest"
)

func indented(t *testing.T, ev nostr.Event) string {
	t.Helper()
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestFeedInitialState(t *testing.T) {
	f := NewFeed(nil)
	if got := f.Render(); got != "{}" {
		t.Fatalf("expected {}, got %q", got)
	}
	if f.Latest() != nil {
		t.Fatal("expected no latest event")
	}
	select {
	case <-f.Updates():
		t.Fatal("unexpected update signal")
	default:
	}
}

func TestFeedHandle(t *testing.T) {
	f := NewFeed(nil)
	ev := nostrtest.TextNote("e1", "alice", "hello", 1700000000)
	f.Handle(&ev)

	want := indented(t, ev)
	if got := f.Render(); got != want {
		t.Fatalf("render mismatch\n got: %s\nwant: %s", got, want)
	}

	// Re-rendering without new events is stable
	for i := 0; i < 3; i++ {
		if got := f.Render(); got != want {
			t.Fatalf("render changed on read %d", i)
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(f.Render()), &decoded); err != nil {
		t.Fatalf("render is not JSON: %v", err)
	}
	for _, key := range []string{"id", "pubkey", "created_at", "kind", "tags", "content", "sig"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestFeedKeepsOnlyLatest(t *testing.T) {
	f := NewFeed(nil)
	first := nostrtest.TextNote("e1", "alice", "one", 1)
	second := nostrtest.TextNote("e2", "bob", "two", 2)
	f.Handle(&first)
	f.Handle(&second)

	if f.Latest().ID != "e2" {
		t.Fatalf("expected e2, got %s", f.Latest().ID)
	}
	snap := f.Snapshot()
	if snap.Count != 2 || snap.Rendered != indented(t, second) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if time.Since(snap.Updated) > time.Minute {
		t.Fatalf("updated time not set: %v", snap.Updated)
	}
}

func TestFeedUpdatesCoalesce(t *testing.T) {
	f := NewFeed(nil)
	for i := 0; i < 5; i++ {
		ev := nostrtest.TextNote("e", "alice", "x", int64(i))
		f.Handle(&ev)
	}

	select {
	case <-f.Updates():
	default:
		t.Fatal("expected an update signal")
	}
	select {
	case <-f.Updates():
		t.Fatal("burst should collapse into one signal")
	default:
	}
}

func TestFeedIgnoresNil(t *testing.T) {
	f := NewFeed(nil)
	f.Handle(nil)
	if f.Render() != EmptyState || f.Snapshot().Count != 0 {
		t.Fatal("nil event changed the feed")
	}
}
