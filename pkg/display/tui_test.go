package display

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr/nostrtest"
)

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestModelQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		t.Run(key.String(), func(t *testing.T) {
			m := sized(t, NewModel(NewFeed(nil), "notefeed"))
			_, cmd := m.Update(key)
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Fatal("expected tea.Quit")
			}
		})
	}
}

func TestModelShowsEmptyStateWhileWaiting(t *testing.T) {
	m := sized(t, NewModel(NewFeed(nil), "notefeed"))
	view := m.View()
	if !strings.Contains(view, "waiting for events") || !strings.Contains(view, "{}") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestModelRendersFeedUpdate(t *testing.T) {
	feed := NewFeed(nil)
	m := sized(t, NewModel(feed, "notefeed"))

	ev := nostrtest.TextNote("note", "alice", "gm", 1)
	feed.Handle(&ev)

	next, cmd := m.Update(feedUpdatedMsg{})
	if cmd == nil {
		t.Fatal("expected the watcher to be re-armed")
	}
	m = next.(Model)
	if !m.received {
		t.Fatal("model did not record the event")
	}
	if view := m.View(); !strings.Contains(view, `"content": "gm"`) {
		t.Fatalf("event missing from view:\n%s", view)
	}
}

func TestModelConnectionFailureKeepsContent(t *testing.T) {
	feed := NewFeed(nil)
	ev := nostrtest.TextNote("note", "alice", "still here", 1)
	feed.Handle(&ev)

	m := sized(t, NewModel(feed, "notefeed"))
	next, _ := m.Update(ConnectionMsg{Err: errors.New("dial failed")})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "connection failed") {
		t.Fatalf("status missing from view:\n%s", view)
	}
	if !strings.Contains(view, "still here") {
		t.Fatalf("content lost after failure:\n%s", view)
	}
	if feed.Latest().ID != "note" {
		t.Fatal("feed changed after failure")
	}
}

func TestWaitForUpdate(t *testing.T) {
	t.Run("returns on feed change", func(t *testing.T) {
		feed := NewFeed(nil)
		ev := nostrtest.TextNote("note", "alice", "gm", 1)
		feed.Handle(&ev)

		if _, ok := waitForUpdate(feed, nil)().(feedUpdatedMsg); !ok {
			t.Fatal("expected feedUpdatedMsg")
		}
	})

	t.Run("returns on done", func(t *testing.T) {
		done := make(chan struct{})
		cmd := waitForUpdate(NewFeed(nil), done)

		result := make(chan tea.Msg, 1)
		go func() { result <- cmd() }()
		close(done)

		select {
		case msg := <-result:
			if msg != nil {
				t.Fatalf("expected no message, got %T", msg)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	})
}

func TestFooterShowsPostTime(t *testing.T) {
	feed := NewFeed(nil)
	ev := nostrtest.TextNote("note", "alice", "gm", 1700000000)
	feed.Handle(&ev)

	m := sized(t, NewModel(feed, "notefeed"))
	want := time.Unix(1700000000, 0).Format(time.DateTime)
	if view := m.View(); !strings.Contains(view, "posted "+want) {
		t.Fatalf("post time missing from view:\n%s", view)
	}
}
