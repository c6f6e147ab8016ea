// Package nostrtest provides an in-process relay for tests.
//
// The relay speaks the subset of NIP-01 the client uses: it answers REQ with
// the stored events that match, then EOSE, pushes newly published events to
// open subscriptions, honors CLOSE, and acknowledges client EVENTs with OK.
package nostrtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Relay is a fake relay backed by an httptest server
type Relay struct {
	server *httptest.Server

	mu       sync.Mutex
	events   []nostr.Event
	conns    map[*relayConn]struct{}
	requests []nostr.ReqEnvelope
	closes   []string

	// SkipEOSE suppresses EOSE after stored events are sent
	SkipEOSE bool
}

type relayConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	subs    map[string]nostr.Filters
}

func (c *relayConn) send(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = c.ws.WriteJSON(v)
}

// NewRelay starts a relay and registers its shutdown with t.Cleanup
func NewRelay(t testing.TB, stored ...nostr.Event) *Relay {
	t.Helper()
	r := &Relay{
		events: append([]nostr.Event(nil), stored...),
		conns:  make(map[*relayConn]struct{}),
	}
	r.server = httptest.NewServer(http.HandlerFunc(r.handle))
	t.Cleanup(r.Close)
	return r
}

// URL returns the ws:// address of the relay
func (r *Relay) URL() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

// Close drops every connection and stops the server
func (r *Relay) Close() {
	r.DropConnections()
	r.server.Close()
}

// DropConnections closes every client connection without stopping the server
func (r *Relay) DropConnections() {
	r.mu.Lock()
	conns := make([]*relayConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.ws.Close()
	}
}

// Publish stores ev and delivers it to every open subscription it matches
func (r *Relay) Publish(ev nostr.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	type delivery struct {
		conn  *relayConn
		subID string
	}
	var out []delivery
	for c := range r.conns {
		for id, filters := range c.subs {
			if filters.Match(&ev) {
				out = append(out, delivery{conn: c, subID: id})
			}
		}
	}
	r.mu.Unlock()

	for _, d := range out {
		d.conn.send(nostr.EventEnvelope{SubscriptionID: d.subID, Event: ev})
	}
}

// Notice sends a NOTICE to every connected client
func (r *Relay) Notice(msg string) {
	for _, c := range r.connections() {
		c.send(nostr.NoticeEnvelope{Message: msg})
	}
}

// CloseSubscription ends a subscription from the relay side with CLOSED
func (r *Relay) CloseSubscription(id, reason string) {
	r.mu.Lock()
	var target []*relayConn
	for c := range r.conns {
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			target = append(target, c)
		}
	}
	r.mu.Unlock()

	for _, c := range target {
		c.send(nostr.ClosedEnvelope{SubscriptionID: id, Reason: reason})
	}
}

// Requests returns every REQ received so far
func (r *Relay) Requests() []nostr.ReqEnvelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nostr.ReqEnvelope(nil), r.requests...)
}

// Closes returns the subscription ids of every CLOSE received so far
func (r *Relay) Closes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.closes...)
}

// OpenSubscriptions returns the number of live subscriptions across connections
func (r *Relay) OpenSubscriptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for c := range r.conns {
		n += len(c.subs)
	}
	return n
}

// Connections returns the number of connected clients
func (r *Relay) Connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Relay) connections() []*relayConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*relayConn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Relay) handle(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	c := &relayConn{ws: ws, subs: make(map[string]nostr.Filters)}

	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.conns, c)
		r.mu.Unlock()
		_ = ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := nostr.ParseEnvelope(data)
		if err != nil {
			c.send(nostr.NoticeEnvelope{Message: "error: " + err.Error()})
			continue
		}

		switch env := env.(type) {
		case nostr.ReqEnvelope:
			r.mu.Lock()
			r.requests = append(r.requests, env)
			c.subs[env.SubscriptionID] = env.Filters
			var matched []nostr.Event
			for _, ev := range r.events {
				if env.Filters.Match(&ev) {
					matched = append(matched, ev)
				}
			}
			skipEOSE := r.SkipEOSE
			r.mu.Unlock()

			for _, ev := range matched {
				c.send(nostr.EventEnvelope{SubscriptionID: env.SubscriptionID, Event: ev})
			}
			if !skipEOSE {
				c.send(nostr.EOSEEnvelope{SubscriptionID: env.SubscriptionID})
			}

		case nostr.CloseEnvelope:
			r.mu.Lock()
			r.closes = append(r.closes, env.SubscriptionID)
			delete(c.subs, env.SubscriptionID)
			r.mu.Unlock()

		case nostr.EventEnvelope:
			r.Publish(env.Event)
			c.send(nostr.OKEnvelope{EventID: env.Event.ID, OK: true})
		}
	}
}

// WaitUntil polls cond until it returns true or the timeout elapses
func WaitUntil(t testing.TB, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

// TextNote builds a kind 1 event for tests
func TextNote(id, pubkey, content string, createdAt int64) nostr.Event {
	return nostr.Event{
		ID:        id,
		PubKey:    pubkey,
		CreatedAt: nostr.Timestamp(createdAt),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   content,
		Sig:       strings.Repeat("0", 128),
	}
}
