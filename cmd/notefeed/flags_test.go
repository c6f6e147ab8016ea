package main

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DeBrosOfficial/notefeed/pkg/config"
	"github.com/DeBrosOfficial/notefeed/pkg/display"
	"github.com/DeBrosOfficial/notefeed/pkg/nostr/nostrtest"
)

// safeBuffer is a bytes.Buffer that tolerates concurrent writers
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseFlags(t *testing.T) {
	fv, _, err := parseFlags("notefeed", []string{
		"-relay", "wss://a.example",
		"-relay", "wss://b.example,wss://c.example",
		"-kind", "1", "-kind", "6,7",
		"-author", "npub1x",
		"-no-tui",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if want := []string{"wss://a.example", "wss://b.example", "wss://c.example"}; !reflect.DeepEqual([]string(fv.Relays), want) {
		t.Errorf("relays = %v, want %v", fv.Relays, want)
	}
	if want := []int{1, 6, 7}; !reflect.DeepEqual([]int(fv.Kinds), want) {
		t.Errorf("kinds = %v, want %v", fv.Kinds, want)
	}
	if !fv.NoTUI || fv.Author != "npub1x" {
		t.Errorf("unexpected values: %+v", fv)
	}
	if !fv.set["relay"] || fv.set["http"] {
		t.Errorf("unexpected set flags: %v", fv.set)
	}
}

func TestParseFlagsBadKind(t *testing.T) {
	if _, _, err := parseFlags("notefeed", []string{"-kind", "text"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for non-numeric kind")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no flags keeps file values",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				if !reflect.DeepEqual(cfg, config.DefaultConfig()) {
					t.Errorf("config changed: %+v", cfg)
				}
			},
		},
		{
			name: "relays replace defaults",
			args: []string{"-relay", "ws://localhost:7777"},
			check: func(t *testing.T, cfg *config.Config) {
				if !reflect.DeepEqual(cfg.Relays, []string{"ws://localhost:7777"}) {
					t.Errorf("relays = %v", cfg.Relays)
				}
			},
		},
		{
			name: "no-tui and http",
			args: []string{"-no-tui", "-http", ":8089"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Display.TUI || cfg.Display.HTTPAddr != ":8089" {
					t.Errorf("display = %+v", cfg.Display)
				}
			},
		},
		{
			name: "proxy enables routing",
			args: []string{"-proxy", "127.0.0.1:9050"},
			check: func(t *testing.T, cfg *config.Config) {
				if !cfg.Proxy.Enabled || cfg.Proxy.SOCKS5 != "127.0.0.1:9050" {
					t.Errorf("proxy = %+v", cfg.Proxy)
				}
			},
		},
		{
			name: "quiet raises level",
			args: []string{"-quiet"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Logging.Level != "warn" {
					t.Errorf("level = %q", cfg.Logging.Level)
				}
			},
		},
		{
			name: "stored events only by default",
			args: []string{"-no-tui"},
			check: func(t *testing.T, cfg *config.Config) {
				if !cfg.Subscription.CloseOnEOSE {
					t.Error("expected close_on_eose by default")
				}
			},
		},
		{
			name: "follow keeps the subscription open",
			args: []string{"-follow"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Subscription.CloseOnEOSE {
					t.Error("-follow should disable close_on_eose")
				}
			},
		},
		{
			name: "close-on-eose can be switched off",
			args: []string{"-close-on-eose=false"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Subscription.CloseOnEOSE {
					t.Error("-close-on-eose=false should disable close_on_eose")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, _, err := parseFlags("notefeed", tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			cfg := config.DefaultConfig()
			applyFlags(cfg, fv)
			tt.check(t, cfg)
		})
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "notefeed ") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	err := run([]string{"-no-tui", "-relay", "ftp://nope"}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(stderr.String(), "relays[0]") {
		t.Fatalf("validation detail missing: %q", stderr.String())
	}
}

func TestRunCloseOnEOSEPrintsStoredEvent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fake := nostrtest.NewRelay(t, nostrtest.TextNote("stored", "alice", "hello", 1))

	var stdout bytes.Buffer
	var stderr safeBuffer
	done := make(chan error, 1)
	go func() {
		done <- run([]string{"-no-tui", "-close-on-eose", "-relay", fake.URL()}, &stdout, &stderr)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not exit after EOSE")
	}

	out := stdout.String()
	if !strings.HasPrefix(out, display.EmptyState+"\n") {
		t.Errorf("expected the empty state first, got %q", out)
	}
	if !strings.Contains(out, `"content": "hello"`) {
		t.Errorf("stored event not printed: %q", out)
	}
}

func TestRunOneShotExitsWhenConnectFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fake := nostrtest.NewRelay(t)
	url := fake.URL()
	fake.Close()

	var stdout bytes.Buffer
	var stderr safeBuffer
	done := make(chan error, 1)
	go func() {
		done <- run([]string{"-no-tui", "-relay", url}, &stdout, &stderr)
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected the connection error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not exit after the connection failed")
	}

	if out := stdout.String(); out != display.EmptyState+"\n" {
		t.Errorf("expected only the empty state, got %q", out)
	}
}

func TestPrintFeed(t *testing.T) {
	feed := display.NewFeed(nil)
	ctx, cancel := context.WithCancel(context.Background())

	var buf safeBuffer
	done := make(chan struct{})
	go func() {
		printFeed(ctx, feed, &buf)
		close(done)
	}()

	ev := nostrtest.TextNote("e1", "alice", "gm", 1)
	feed.Handle(&ev)
	nostrtest.WaitUntil(t, 2*time.Second, func() bool { return strings.Contains(buf.String(), `"gm"`) })

	cancel()
	<-done
}

func TestClientConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Relays = []string{"ws://localhost:7777"}
	cfg.Proxy.SOCKS5 = "127.0.0.1:9150"

	cc := clientConfig(cfg)
	if !reflect.DeepEqual(cc.Relays, cfg.Relays) || cc.ProxyAddr != "" {
		t.Errorf("unexpected client config: %+v", cc)
	}

	cfg.Proxy.Enabled = true
	if cc := clientConfig(cfg); cc.ProxyAddr != "127.0.0.1:9150" {
		t.Errorf("proxy not forwarded: %q", cc.ProxyAddr)
	}
}
