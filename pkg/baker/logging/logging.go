// Package logging provides component loggers for baker. The CLI and any
// embedding application share one initialized sink.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "root", "/media/projects")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level string into a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Components maps component names to level overrides.
	Components map[string]string

	// Console mirrors warn-and-above to stderr when true.
	Console bool
}

var (
	mu          sync.Mutex
	sink        io.WriteCloser
	baseLevel   log.Level
	overrides   map[string]log.Level
	console     bool
	loggers     = make(map[string]*log.Logger)
	initialized bool
)

// DefaultLogPath returns the default log file location.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "baker", "baker.log")
}

// Init opens the log sink and configures levels. Safe to call once per
// process; subsequent calls replace the configuration.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	perComponent := make(map[string]log.Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("component %q: %w", name, err)
		}
		perComponent[name] = parsed
	}

	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		_ = sink.Close()
	}
	sink = f
	baseLevel = level
	overrides = perComponent
	console = cfg.Console
	loggers = make(map[string]*log.Logger)
	initialized = true
	return nil
}

// Get returns the logger for a component, creating it on first use.
// Before Init, loggers write to stderr at info level so early failures
// are still visible.
func Get(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := loggers[component]; ok {
		return logger
	}

	var w io.Writer = os.Stderr
	level := log.InfoLevel
	if initialized {
		w = sink
		if console {
			w = io.MultiWriter(sink, os.Stderr)
		}
		level = baseLevel
		if override, ok := overrides[component]; ok {
			level = override
		}
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          component,
		ReportTimestamp: true,
	})
	loggers[component] = logger
	return logger
}

// Close flushes and closes the log sink.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	initialized = false
	loggers = make(map[string]*log.Logger)
	return err
}
