package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/client"
	"github.com/DeBrosOfficial/notefeed/pkg/config"
	"github.com/DeBrosOfficial/notefeed/pkg/display"
	"github.com/DeBrosOfficial/notefeed/pkg/logging"
	"github.com/DeBrosOfficial/notefeed/pkg/relay"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const appName = "notefeed"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "notefeed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fv, fs, err := parseFlags(appName, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fv.Help {
		fs.Usage()
		return nil
	}
	if fv.Version {
		fmt.Fprintf(stdout, "%s %s\n", appName, version)
		return nil
	}

	cfg, err := loadConfig(fv)
	if err != nil {
		return err
	}
	applyFlags(cfg, fv)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(stderr, "  - %v\n", e)
		}
		return fmt.Errorf("configuration has %d error(s)", len(errs))
	}

	logger, err := setupLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	filter, err := display.BuildFilter(cfg.Subscription.Kinds, cfg.Subscription.Author, cfg.Subscription.Limit)
	if err != nil {
		return err
	}

	c, err := client.NewClient(clientConfig(cfg), client.WithLogger(logger.For(logging.ComponentClient)))
	if err != nil {
		return err
	}
	defer c.Disconnect()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(client.WithClient(sigCtx, c))
	defer cancel()

	logger.ComponentInfo(logging.ComponentGeneral, "Starting notefeed",
		zap.String("version", version),
		zap.Strings("relays", cfg.Relays),
		zap.Ints("kinds", cfg.Subscription.Kinds),
		zap.String("author", cfg.Subscription.Author),
		zap.Bool("tui", cfg.Display.TUI),
		zap.String("http_addr", cfg.Display.HTTPAddr))

	feed := display.NewFeed(logger.For(logging.ComponentDisplay))
	opts := relay.SubscriptionOptions{CloseOnEOSE: cfg.Subscription.CloseOnEOSE}
	comp := display.NewComponent(feed, filter, opts, logger.For(logging.ComponentDisplay))
	defer comp.Stop()

	var program *tea.Program
	if cfg.Display.TUI {
		program = display.NewProgram(ctx, display.NewModel(feed, "notefeed "+filterLabel(cfg)))
	}

	// With nothing left to display, a closing subscription makes the run one-shot
	oneShot := !cfg.Display.TUI && cfg.Display.HTTPAddr == "" && opts.CloseOnEOSE
	feedErr := make(chan error, 1)

	// Connect in the background; the display shows the empty state until then
	go func() {
		err := <-c.ConnectAsync(ctx)
		if program != nil {
			program.Send(display.ConnectionMsg{Err: err})
		}
		if err == nil && ctx.Err() == nil {
			if err = startFeed(ctx, comp); err != nil {
				logger.ComponentError(logging.ComponentDisplay, "Failed to subscribe", zap.Error(err))
			} else if oneShot {
				select {
				case <-comp.Done():
				case <-ctx.Done():
				}
			}
		}
		feedErr <- err
		if oneShot {
			cancel()
		}
	}()

	if cfg.Display.HTTPAddr != "" {
		srv, err := display.NewServer(logger, display.ServerConfig{
			ListenAddr:     cfg.Display.HTTPAddr,
			Title:          "notefeed " + filterLabel(cfg),
			RefreshSeconds: 5,
		}, feed, c)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.ComponentError(logging.ComponentHTTP, "Feed page stopped", zap.Error(err))
			}
		}()
	}

	if program != nil {
		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("terminal UI: %w", err)
		}
		logger.ComponentInfo(logging.ComponentGeneral, "Terminal UI closed")
		return nil
	}

	printFeed(ctx, feed, stdout)
	logger.ComponentInfo(logging.ComponentGeneral, "Shutting down")
	if oneShot {
		if err := <-feedErr; err != nil && sigCtx.Err() == nil {
			return err
		}
	}
	return nil
}

// startFeed subscribes comp with the client carried by ctx
func startFeed(ctx context.Context, comp *display.Component) error {
	c, err := client.FromContext(ctx)
	if err != nil {
		return err
	}
	return comp.Start(ctx, c)
}

// printFeed writes the feed state on start and after every change until ctx is done
func printFeed(ctx context.Context, feed *display.Feed, w io.Writer) {
	fmt.Fprintln(w, feed.Render())
	for {
		select {
		case <-ctx.Done():
			// Flush an update that raced with shutdown
			select {
			case <-feed.Updates():
				fmt.Fprintln(w, feed.Render())
			default:
			}
			return
		case <-feed.Updates():
			fmt.Fprintln(w, feed.Render())
		}
	}
}

func loadConfig(fv *FlagValues) (*config.Config, error) {
	if fv.ConfigPath != "" {
		cfg, err := config.LoadFile(fv.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	path, err := config.DefaultPath(config.ConfigFileName)
	if err != nil {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogger logs to stderr, or to a file while the terminal UI owns the screen
func setupLogger(cfg *config.Config, stderr io.Writer) (*logging.ColoredLogger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	opts := logging.Options{
		Level:        level,
		EnableColors: !cfg.Logging.NoColor,
		FilePath:     cfg.Logging.OutputFile,
	}

	switch {
	case opts.FilePath != "":
	case cfg.Display.TUI:
		dir, err := config.EnsureConfigDir()
		if err != nil {
			return nil, err
		}
		opts.FilePath = filepath.Join(dir, config.LogFileName)
		opts.EnableColors = false
	default:
		// Events go to stdout, so logs go to stderr
		opts.Writer = stderr
	}

	return logging.New(opts)
}

func clientConfig(cfg *config.Config) *client.ClientConfig {
	cc := client.DefaultClientConfig(appName)
	cc.Relays = append([]string(nil), cfg.Relays...)
	cc.ConnectTimeout = cfg.Connection.ConnectTimeout
	cc.PingInterval = cfg.Connection.PingInterval
	if cfg.Proxy.Enabled {
		cc.ProxyAddr = cfg.Proxy.SOCKS5
	}
	return cc
}

func filterLabel(cfg *config.Config) string {
	label := fmt.Sprintf("kinds=%v", cfg.Subscription.Kinds)
	if cfg.Subscription.Author != "" {
		label += " author=" + cfg.Subscription.Author
	}
	return label
}
