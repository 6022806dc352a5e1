package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 500

// Config selects the output format and the global and per-module levels.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// level returns the effective level for module. An unknown or empty module
// override falls back to the global level, which itself defaults to info.
func (c Config) level(module string) slog.Level {
	global, ok := parseLevel(c.Level)
	if !ok {
		global = slog.LevelInfo
	}
	if override, found := parseLevel(c.Modules[module]); found {
		return override
	}
	return global
}

type moduleLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// registry owns the module loggers. Level vars survive Initialize so that
// UpdateLevels reaches loggers already handed out.
type registry struct {
	mu      sync.RWMutex
	cfg     Config
	ready   bool
	global  slog.LevelVar
	modules map[string]*moduleLogger
	buffer  *RingBuffer
}

func newRegistry(buffer *RingBuffer) *registry {
	return &registry{modules: make(map[string]*moduleLogger), buffer: buffer}
}

var std = newRegistry(NewRingBuffer(defaultBufferSize))

// Initialize applies cfg to every module logger and installs the default
// slog logger.
func Initialize(cfg Config) {
	std.mu.Lock()
	defer std.mu.Unlock()

	std.cfg = cfg
	std.ready = true
	std.global.Set(cfg.level(""))
	for name, m := range std.modules {
		m.level.Set(cfg.level(name))
		m.logger = std.newLogger(name, m.level)
	}
	slog.SetDefault(slog.New(std.handler(&std.global)))
}

// UpdateLevels changes levels in place and keeps the output format.
func UpdateLevels(cfg Config) {
	std.mu.Lock()
	defer std.mu.Unlock()

	std.cfg.Level = cfg.Level
	std.cfg.Modules = cfg.Modules
	std.global.Set(std.cfg.level(""))
	for name, m := range std.modules {
		m.level.Set(std.cfg.level(name))
	}
}

// GetBuffer returns the ring buffer holding recent log entries.
func GetBuffer() *RingBuffer {
	return std.buffer
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	std.mu.RLock()
	m, ok := std.modules[module]
	std.mu.RUnlock()
	if ok {
		return std.current(m)
	}

	std.mu.Lock()
	defer std.mu.Unlock()
	if m, ok = std.modules[module]; ok {
		return m.logger
	}

	m = &moduleLogger{level: new(slog.LevelVar)}
	if std.ready {
		m.level.Set(std.cfg.level(module))
	}
	m.logger = std.newLogger(module, m.level)
	std.modules[module] = m
	return m.logger
}

func (r *registry) current(m *moduleLogger) *slog.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return m.logger
}

func (r *registry) newLogger(module string, level slog.Leveler) *slog.Logger {
	return slog.New(r.handler(level)).With("module", module)
}

// handler fans out to stdout when it is attached, to the journal when
// journald is reachable, and always to the ring buffer.
func (r *registry) handler(level slog.Leveler) slog.Handler {
	sinks := make([]slog.Handler, 0, 3)
	if stdoutAttached() {
		opts := &slog.HandlerOptions{Level: level}
		if r.cfg.Format == "json" {
			sinks = append(sinks, slog.NewJSONHandler(os.Stdout, opts))
		} else {
			sinks = append(sinks, slog.NewTextHandler(os.Stdout, opts))
		}
	}
	if IsJournalAvailable() {
		sinks = append(sinks, NewJournalHandler(level))
	}
	sinks = append(sinks, NewBufferHandler(r.buffer, level))

	if len(sinks) == 1 {
		return sinks[0]
	}
	return NewMultiHandler(sinks...)
}

// stdoutAttached reports false for /dev/null and a closed stdout.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode.IsRegular() || mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
