package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	// Standard colors
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	// Bright colors
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger wraps zap.Logger with colored output
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
	closer       io.Closer
}

// Component represents different parts of the system for color coding
type Component string

const (
	ComponentClient  Component = "CLIENT"
	ComponentRelay   Component = "RELAY"
	ComponentPubSub  Component = "PUBSUB"
	ComponentDisplay Component = "DISPLAY"
	ComponentHTTP    Component = "HTTP"
	ComponentConfig  Component = "CONFIG"
	ComponentGeneral Component = "GENERAL"
)

// getComponentColor returns the color for a specific component
func getComponentColor(component Component) string {
	switch component {
	case ComponentClient:
		return Blue
	case ComponentRelay:
		return BrightCyan
	case ComponentPubSub:
		return BrightMagenta
	case ComponentDisplay:
		return BrightGreen
	case ComponentHTTP:
		return Cyan
	case ComponentConfig:
		return BrightYellow
	case ComponentGeneral:
		return Yellow
	default:
		return White
	}
}

// getLevelColor returns the color for a log level
func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return Red
	default:
		return White
	}
}

var levelLetters = map[zapcore.Level]string{
	zapcore.DebugLevel: "D",
	zapcore.InfoLevel:  "I",
	zapcore.WarnLevel:  "W",
	zapcore.ErrorLevel: "E",
}

// coloredConsoleEncoder creates a custom encoder with colors
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	// HH:MM:SS only
	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(paint(enableColors, Dim, t.Format("15:04:05")))
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelStr := levelLetters[level]
		if levelStr == "" {
			levelStr = "?"
		}
		enc.AppendString(paint(enableColors, getLevelColor(level)+Bold, levelStr))
	}

	// File name without directory or extension
	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		file = strings.TrimSuffix(file, ".go")
		enc.AppendString(paint(enableColors, Dim, file))
	}

	return zapcore.NewConsoleEncoder(config)
}

func paint(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + Reset
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Options selects where and how much a logger writes
type Options struct {
	Level        zapcore.Level
	EnableColors bool
	// FilePath appends to a file instead of writing to stdout
	FilePath string
	// Writer overrides both stdout and FilePath
	Writer io.Writer
}

// New creates a logger from opts
func New(opts Options) (*ColoredLogger, error) {
	var (
		sink   zapcore.WriteSyncer
		closer io.Closer
	)
	switch {
	case opts.Writer != nil:
		sink = zapcore.AddSync(opts.Writer)
	case opts.FilePath != "":
		file, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.FilePath, err)
		}
		sink = zapcore.AddSync(file)
		closer = file
	default:
		sink = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(coloredConsoleEncoder(opts.EnableColors), sink, opts.Level)

	return &ColoredLogger{
		Logger:       zap.New(core, zap.AddCaller()),
		enableColors: opts.EnableColors,
		closer:       closer,
	}, nil
}

// NewColoredLogger creates a new colored logger on stdout
func NewColoredLogger(component Component, enableColors bool) (*ColoredLogger, error) {
	return New(Options{Level: zapcore.DebugLevel, EnableColors: enableColors})
}

// NewDefaultLogger creates a logger with default settings and colors on
func NewDefaultLogger(component Component) (*ColoredLogger, error) {
	return NewColoredLogger(component, true)
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(component Component, filePath string, enableColors bool) (*ColoredLogger, error) {
	return New(Options{Level: zapcore.DebugLevel, EnableColors: enableColors, FilePath: filePath})
}

// For returns a child logger tagged with component, for packages that take a
// plain *zap.Logger.
func (l *ColoredLogger) For(component Component) *zap.Logger {
	return l.Logger.With(zap.String("component", string(component)))
}

// Close flushes the logger and closes its file, if any
func (l *ColoredLogger) Close() error {
	_ = l.Logger.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *ColoredLogger) tag(component Component, msg string) string {
	if l.enableColors {
		return fmt.Sprintf("%s[%s]%s %s", getComponentColor(component), component, Reset, msg)
	}
	return fmt.Sprintf("[%s] %s", component, msg)
}

// Component-specific logging methods
func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Info(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Warn(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Error(l.tag(component, msg), fields...)
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Debug(l.tag(component, msg), fields...)
}

// StandardLogger adapts a ColoredLogger to Print-style interfaces such as
// the chi request logger
type StandardLogger struct {
	logger    *ColoredLogger
	component Component
}

// NewStandardLogger wraps logger for component
func NewStandardLogger(logger *ColoredLogger, component Component) *StandardLogger {
	return &StandardLogger{
		logger:    logger,
		component: component,
	}
}

// Printf implements the standard library log interface with colors
func (s *StandardLogger) Printf(format string, v ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprintf(format, v...), "\n")
	s.logger.ComponentInfo(s.component, msg)
}

// Print implements the standard library log interface with colors
func (s *StandardLogger) Print(v ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprint(v...), "\n")
	s.logger.ComponentInfo(s.component, msg)
}

// Println implements the standard library log interface with colors
func (s *StandardLogger) Println(v ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprintln(v...), "\n")
	s.logger.ComponentInfo(s.component, msg)
}

func (s *StandardLogger) Errorf(format string, v ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprintf(format, v...), "\n")
	s.logger.ComponentError(s.component, msg)
}
