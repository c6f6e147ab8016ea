package client

import (
	"reflect"
	"testing"
)

func TestDefaultRelays(t *testing.T) {
	t.Setenv("NOTEFEED_RELAYS", "")
	if got := DefaultRelays(); !reflect.DeepEqual(got, []string{DefaultRelay}) {
		t.Fatalf("expected default relay, got %v", got)
	}
}

func TestDefaultRelaysEnvOverride(t *testing.T) {
	t.Setenv("NOTEFEED_RELAYS", "wss://a.example, ,wss://b.example ")
	got := DefaultRelays()
	want := []string{"wss://a.example", "wss://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDefaultClientConfig(t *testing.T) {
	t.Setenv("NOTEFEED_RELAYS", "")
	cfg := DefaultClientConfig("notefeed")
	if err := ValidateClientConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ConnectTimeout <= 0 || cfg.PingInterval <= 0 {
		t.Fatalf("expected positive timeouts: %+v", cfg)
	}
}

func TestNormalizeRelays(t *testing.T) {
	in := []string{"wss://Relay.Example/", "https://relay.example", "ws://localhost:7777"}
	out, err := normalizeRelays(in)
	if err != nil {
		t.Fatalf("normalizeRelays: %v", err)
	}
	want := []string{"wss://relay.example", "ws://localhost:7777"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}

	if _, err := normalizeRelays([]string{"relay.example"}); err == nil {
		t.Fatal("expected error for missing scheme")
	}
}
