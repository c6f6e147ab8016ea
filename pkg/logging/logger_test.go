package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{" error ", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestComponentTagWithoutColors(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: zapcore.DebugLevel, Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.ComponentInfo(ComponentRelay, "connected", zap.String("relay", "wss://r"))
	out := buf.String()
	if !strings.Contains(out, "[RELAY] connected") {
		t.Errorf("missing component tag: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("unexpected color codes: %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: zapcore.WarnLevel, Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hidden")
	logger.For(ComponentClient).Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "CLIENT") {
		t.Errorf("expected warn entry with component field: %q", out)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notefeed.log")
	logger, err := NewFileLogger(ComponentGeneral, path, false)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	NewStandardLogger(logger, ComponentHTTP).Printf("GET / 200\n")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[HTTP] GET / 200") {
		t.Errorf("unexpected log contents: %q", data)
	}
}

func TestNewFileLoggerBadPath(t *testing.T) {
	if _, err := NewFileLogger(ComponentGeneral, filepath.Join(t.TempDir(), "missing", "x.log"), false); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
