package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DeBrosOfficial/notefeed/pkg/config"
)

// stringList collects a repeatable string flag
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// intList collects a repeatable integer flag
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid kind %q", part)
		}
		*l = append(*l, n)
	}
	return nil
}

// FlagValues holds parsed CLI flag values in a structured form.
type FlagValues struct {
	ConfigPath  string
	Relays      stringList
	Author      string
	Kinds       intList
	CloseOnEOSE bool
	Follow      bool
	HTTPAddr    string
	NoTUI       bool
	Proxy       string
	Quiet       bool
	Help        bool
	Version     bool

	// set records which flags appeared on the command line
	set map[string]bool
}

// parseFlags parses args into FlagValues
func parseFlags(name string, args []string, output io.Writer) (*FlagValues, *flag.FlagSet, error) {
	fv := &FlagValues{set: make(map[string]bool)}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&fv.ConfigPath, "config", "", "Path to config YAML file (default ~/.notefeed/notefeed.yaml)")
	fs.Var(&fv.Relays, "relay", "Relay URL; repeat or comma separate for several")
	fs.StringVar(&fv.Author, "author", "", "Only show events from this public key (hex or npub)")
	fs.Var(&fv.Kinds, "kind", "Event kind to show; repeat for several (default 1)")
	fs.BoolVar(&fv.CloseOnEOSE, "close-on-eose", true, "Stop after the relays have sent their stored events")
	fs.BoolVar(&fv.Follow, "follow", false, "Keep the subscription open for live events (same as -close-on-eose=false)")
	fs.StringVar(&fv.HTTPAddr, "http", "", "Serve the feed page on this address, e.g. 127.0.0.1:8089")
	fs.BoolVar(&fv.NoTUI, "no-tui", false, "Print events to stdout instead of the terminal UI")
	fs.StringVar(&fv.Proxy, "proxy", "", "Dial relays through this SOCKS5 proxy (host:port)")
	fs.BoolVar(&fv.Quiet, "quiet", false, "Only log warnings and errors")
	fs.BoolVar(&fv.Help, "help", false, "Show help")
	fs.BoolVar(&fv.Version, "version", false, "Print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	fs.Visit(func(f *flag.Flag) { fv.set[f.Name] = true })

	return fv, fs, nil
}

// applyFlags copies explicitly set flags over cfg. Precedence: flags > file > defaults.
func applyFlags(cfg *config.Config, fv *FlagValues) {
	if fv.set["relay"] {
		cfg.Relays = append([]string(nil), fv.Relays...)
	}
	if fv.set["author"] {
		cfg.Subscription.Author = fv.Author
	}
	if fv.set["kind"] {
		cfg.Subscription.Kinds = append([]int(nil), fv.Kinds...)
	}
	if fv.set["close-on-eose"] {
		cfg.Subscription.CloseOnEOSE = fv.CloseOnEOSE
	}
	if fv.set["follow"] && fv.Follow {
		cfg.Subscription.CloseOnEOSE = false
	}
	if fv.set["http"] {
		cfg.Display.HTTPAddr = fv.HTTPAddr
	}
	if fv.set["no-tui"] {
		cfg.Display.TUI = !fv.NoTUI
	}
	if fv.set["proxy"] {
		cfg.Proxy.SOCKS5 = fv.Proxy
		cfg.Proxy.Enabled = fv.Proxy != ""
	}
	if fv.set["quiet"] && fv.Quiet {
		cfg.Logging.Level = "warn"
	}
}
