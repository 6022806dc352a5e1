// Package logging holds the per-module slog loggers used across switchlight.
//
// A record goes to stdout as text or json, to journald when its socket is
// reachable, and to a fixed-size ring buffer read by GET /api/logs.
// Attributes whose key names a secret (password, psk, token, key_pem and
// similar) are written as [REDACTED] to the journal and the buffer.
//
//	logging.Initialize(logging.Config{Level: "info", Modules: map[string]string{"session": "debug"}})
//	log := logging.GetLogger("listener")
//	log.Info("Subscribed", "topic", topic)
//
// The [logging] table of the config file uses the same keys; anything other
// than level and format is a module override:
//
//	[logging]
//	level = "info"
//	session = "debug"
//
// UpdateLevels changes levels without rebuilding handlers and is what the
// config watcher calls on reload. Journal fields are upper-cased with groups
// joined by underscores, so `journalctl -t switchlight MODULE=led` works.
package logging
