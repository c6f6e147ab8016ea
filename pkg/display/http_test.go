package display

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/notefeed/pkg/client"
	"github.com/DeBrosOfficial/notefeed/pkg/logging"
	"github.com/DeBrosOfficial/notefeed/pkg/nostr/nostrtest"
)

type stubHealth struct {
	status *client.HealthStatus
	err    error
}

func (s stubHealth) Health() (*client.HealthStatus, error) { return s.status, s.err }

func newTestServer(t *testing.T, feed *Feed, health HealthReporter) *Server {
	t.Helper()
	logger, err := logging.New(logging.Options{Level: zapcore.DebugLevel, Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	s, err := NewServer(logger, ServerConfig{Title: "notes"}, feed, health)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLatestJSON(t *testing.T) {
	feed := NewFeed(nil)
	s := newTestServer(t, feed, nil)

	rec := get(t, s, "/latest.json")
	if rec.Code != http.StatusOK || rec.Body.String() != "{}" {
		t.Fatalf("unexpected empty response: %d %q", rec.Code, rec.Body.String())
	}

	ev := nostrtest.TextNote("note", "alice", "gm", 1)
	feed.Handle(&ev)

	rec = get(t, s, "/latest.json")
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	if rec.Body.String() != indented(t, ev) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestPageEscapesContent(t *testing.T) {
	feed := NewFeed(nil)
	s := newTestServer(t, feed, nil)

	ev := nostrtest.TextNote("note", "alice", "<script>alert(1)</script>", 1)
	feed.Handle(&ev)

	rec := get(t, s, "/")
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(body, "<pre>") || !strings.Contains(body, "<title>notes</title>") {
		t.Fatalf("unexpected page:\n%s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("content not escaped:\n%s", body)
	}
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		health HealthReporter
		code   int
	}{
		{"no reporter", nil, http.StatusOK},
		{"healthy", stubHealth{status: &client.HealthStatus{Status: "healthy"}}, http.StatusOK},
		{"degraded", stubHealth{status: &client.HealthStatus{Status: "degraded"}}, http.StatusOK},
		{"unhealthy", stubHealth{status: &client.HealthStatus{Status: "unhealthy"}}, http.StatusServiceUnavailable},
		{"error", stubHealth{err: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(t, NewFeed(nil), tt.health), "/healthz")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
		})
	}
}
