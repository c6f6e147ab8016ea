package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DeBrosOfficial/notefeed/pkg/logging"
	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "relays[0]" or "subscription.author"
	Message string // e.g., "unsupported scheme"
	Hint    string // e.g., "expected wss://host[:port]"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateRelays()...)
	errs = append(errs, c.validateConnection()...)
	errs = append(errs, c.validateSubscription()...)
	errs = append(errs, c.validateDisplay()...)
	errs = append(errs, c.validateProxy()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateRelays() []error {
	var errs []error

	if len(c.Relays) == 0 {
		errs = append(errs, ValidationError{
			Path:    "relays",
			Message: "must not be empty",
			Hint:    fmt.Sprintf("e.g. %s", DefaultRelay),
		})
		return errs
	}

	seen := make(map[string]bool)
	for i, r := range c.Relays {
		path := fmt.Sprintf("relays[%d]", i)

		key, err := relay.NormalizeURL(r)
		if err != nil {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: err.Error(),
				Hint:    "expected ws://, wss://, http:// or https:// followed by a host",
			})
			continue
		}

		if seen[key] {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("duplicate relay %q", r),
			})
		}
		seen[key] = true
	}

	return errs
}

func (c *Config) validateConnection() []error {
	var errs []error
	conn := c.Connection

	if conn.ConnectTimeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "connection.connect_timeout",
			Message: fmt.Sprintf("must be >= 0; got %v", conn.ConnectTimeout),
		})
	}

	if conn.PingInterval != 0 && conn.PingInterval < time.Second {
		errs = append(errs, ValidationError{
			Path:    "connection.ping_interval",
			Message: fmt.Sprintf("must be >= 1s or 0 (disabled); got %v", conn.PingInterval),
			Hint:    "recommended: 30s",
		})
	}

	return errs
}

func (c *Config) validateSubscription() []error {
	var errs []error
	sub := c.Subscription

	if len(sub.Kinds) == 0 {
		errs = append(errs, ValidationError{
			Path:    "subscription.kinds",
			Message: "must not be empty",
			Hint:    "use [1] for text notes",
		})
	}
	for i, k := range sub.Kinds {
		if k < 0 || k > 65535 {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("subscription.kinds[%d]", i),
				Message: fmt.Sprintf("must be between 0 and 65535; got %d", k),
			})
		}
	}

	if sub.Author != "" {
		if _, err := nostr.DecodePublicKey(sub.Author); err != nil {
			errs = append(errs, ValidationError{
				Path:    "subscription.author",
				Message: err.Error(),
				Hint:    "expected a 64 character hex key or an npub",
			})
		}
	}

	if sub.Limit < 0 {
		errs = append(errs, ValidationError{
			Path:    "subscription.limit",
			Message: fmt.Sprintf("must be >= 0; got %d", sub.Limit),
		})
	}

	return errs
}

func (c *Config) validateDisplay() []error {
	var errs []error

	if c.Display.HTTPAddr != "" {
		if err := validateListenAddr(c.Display.HTTPAddr); err != nil {
			errs = append(errs, ValidationError{
				Path:    "display.http_addr",
				Message: err.Error(),
				Hint:    "expected [host]:port",
			})
		}
	}

	return errs
}

func (c *Config) validateProxy() []error {
	var errs []error

	if c.Proxy.Enabled {
		if err := validateHostPort(c.Proxy.SOCKS5); err != nil {
			errs = append(errs, ValidationError{
				Path:    "proxy.socks5",
				Message: err.Error(),
				Hint:    "expected format: host:port",
			})
		}
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	log := c.Logging

	if _, err := logging.ParseLevel(log.Level); err != nil {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: err.Error(),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	if log.OutputFile != "" {
		dir := filepath.Dir(log.OutputFile)
		if dir != "" && dir != "." {
			if err := validateDirWritable(dir); err != nil {
				errs = append(errs, ValidationError{
					Path:    "logging.output_file",
					Message: fmt.Sprintf("parent directory not writable: %v", err),
				})
			}
		}
	}

	return errs
}

// Helper validation functions

func validateDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	// Try to write a test file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		return fmt.Errorf("directory not writable: %v", err)
	}
	os.Remove(testFile)

	return nil
}

func validateHostPort(hostPort string) error {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("expected format host:port")
	}

	if host == "" {
		return fmt.Errorf("host must not be empty")
	}

	return validatePort(port)
}

// validateListenAddr accepts host:port or :port
func validateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("expected format [host]:port")
	}
	return validatePort(port)
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535; got %q", port)
	}
	return nil
}
