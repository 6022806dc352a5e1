package logging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

func resetState() {
	std = newRegistry(NewRingBuffer(defaultBufferSize))
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"session": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"session", true, true, true},
		{"api", false, false, true},
		{"listener", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	before := GetLogger("led")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"led": "debug"},
	})

	after := GetLogger("led")
	if after != GetLogger("led") {
		t.Error("GetLogger should cache loggers")
	}
	if !after.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("led logger should have debug enabled after Initialize")
	}
}

func TestUpdateLevels(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})
	logger := GetLogger("publisher")

	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}

	UpdateLevels(Config{Level: "warn", Modules: map[string]string{"publisher": "debug"}})

	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("publisher logger should accept debug after UpdateLevels")
	}
	if GetLogger("network").Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("network logger should inherit the warn global level")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestBufferHandlerRecordsEntries(t *testing.T) {
	buffer := NewRingBuffer(4)
	logger := slog.New(NewBufferHandler(buffer, slog.LevelInfo)).With("module", "listener")

	logger.Debug("hidden")
	logger.Warn("Malformed payload", "topic", "n8n/button/state", "error", errors.New("boom"))
	logger.WithGroup("tls").Info("Loaded", "ca", "root.pem")

	entries := buffer.ReadAll()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Module != "listener" || first.Level != "warn" {
		t.Errorf("unexpected entry: %+v", first)
	}
	if first.Attributes["error"] != "boom" {
		t.Errorf("error attribute = %v, want boom", first.Attributes["error"])
	}
	if entries[1].Attributes["tls.ca"] != "root.pem" {
		t.Errorf("grouped attribute missing: %+v", entries[1].Attributes)
	}
}

func TestRingBufferWrapAndLast(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := range 5 {
		rb.Write(LogEntry{Timestamp: time.Unix(int64(i), 0), Message: string(rune('a' + i))})
	}

	if rb.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", rb.Count())
	}

	var got []string
	for _, e := range rb.ReadAll() {
		got = append(got, e.Message)
	}
	if strings.Join(got, "") != "cde" {
		t.Errorf("ReadAll order = %v, want [c d e]", got)
	}

	last := rb.Last(2)
	if len(last) != 2 || last[0].Message != "d" || last[1].Message != "e" {
		t.Errorf("Last(2) = %+v", last)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"invalid", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := parseLevel(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("journal down") }

func TestMultiHandlerKeepsGoingOnError(t *testing.T) {
	buffer := NewRingBuffer(4)
	text := slog.NewTextHandler(io.Discard, nil)
	h := NewMultiHandler(failingHandler{text}, NewBufferHandler(buffer, slog.LevelInfo))

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "still buffered", 0)
	if err := h.Handle(context.Background(), rec); err == nil {
		t.Error("expected the sink error to be returned")
	}
	if buffer.Count() != 1 {
		t.Errorf("buffer count = %d, want 1", buffer.Count())
	}
	if h.WithGroup("") != h {
		t.Error("empty group should return the same handler")
	}
}

func TestBufferHandlerScopesAndSecrets(t *testing.T) {
	buffer := NewRingBuffer(4)
	logger := slog.New(NewBufferHandler(buffer, slog.LevelInfo)).With("module", "network")

	logger.WithGroup("wifi").Info("Associating", "ssid", "lab", "password", "hunter2")

	entry := buffer.ReadAll()[0]
	if entry.Module != "network" {
		t.Errorf("Module = %q, want network (added before the group)", entry.Module)
	}
	if entry.Attributes["wifi.ssid"] != "lab" {
		t.Errorf("wifi.ssid = %v", entry.Attributes["wifi.ssid"])
	}
	if entry.Attributes["wifi.password"] != Redacted {
		t.Errorf("wifi.password = %v, want redacted", entry.Attributes["wifi.password"])
	}
}

func TestJournalFields(t *testing.T) {
	s := scope{}.withAttrs([]slog.Attr{slog.String("module", "session")}).withGroup("broker")
	rec := slog.NewRecord(time.Now(), slog.LevelWarn, "Connect failed", 0)
	rec.AddAttrs(
		slog.String("url", "mqtts://broker:8883"),
		slog.Int("attempt", 3),
		slog.String("key_pem", "-----BEGIN"),
		slog.String("client-id", "pub"),
	)

	fields := journalFields(s, rec)
	want := map[string]string{
		"SYSLOG_IDENTIFIER": SyslogIdentifier,
		"MODULE":            "session",
		"BROKER_URL":        "mqtts://broker:8883",
		"BROKER_ATTEMPT":    "3",
		"BROKER_KEY_PEM":    Redacted,
		"BROKER_CLIENT_ID":  "pub",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %q, want %q", k, fields[k], v)
		}
	}
	if journalPriority(slog.LevelWarn) != journal.PriWarning {
		t.Error("warn should map to PriWarning")
	}
}

func TestRingBufferEmptyAndSmall(t *testing.T) {
	rb := NewRingBuffer(0)
	if got := rb.ReadAll(); len(got) != 0 {
		t.Errorf("empty ReadAll = %v", got)
	}
	rb.Write(LogEntry{Message: "a"})
	rb.Write(LogEntry{Message: "b"})
	if rb.Count() != 1 || rb.ReadAll()[0].Message != "b" {
		t.Errorf("size-1 buffer holds %+v", rb.ReadAll())
	}
}
