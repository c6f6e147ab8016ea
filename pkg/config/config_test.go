package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultSubscriptionClosesOnEOSE(t *testing.T) {
	sub := DefaultConfig().Subscription
	if !sub.CloseOnEOSE {
		t.Error("default subscription should close after stored events")
	}
	if !reflect.DeepEqual(sub.Kinds, []int{1}) {
		t.Errorf("default kinds = %v", sub.Kinds)
	}
}

func TestLoadFileCanFollowLiveEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("subscription:\n  close_on_eose: false\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Subscription.CloseOnEOSE {
		t.Error("close_on_eose: false was not applied")
	}
}

func TestLoadFileRejectsWrongTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("subscription:\n  kinds: text\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestEmptyFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir: %v", err)
	}
	if dir != filepath.Join(home, ".notefeed") {
		t.Errorf("dir = %q", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("config dir not created: %v", err)
	}
}
