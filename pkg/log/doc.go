// Package log captures monitor and protocol events for later replay.
//
// It is separate from operational logging (slog): a capture is a complete,
// machine-readable trace of what the monitor saw. Channel connections,
// value updates, access-rights changes, metadata reads, exceptions, script
// actions, feed commands and transport frames are all recorded as Events.
//
// # Basic Usage
//
//	// Console trace while debugging
//	cfg.Capture = log.NewSlogAdapter(slog.Default())
//
//	// Capture file, read back with pvlog
//	fl, _ := log.NewFileLogger("/var/tmp/pvmon.pvlog")
//	cfg.Capture = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Capture files are a plain sequence of CBOR-encoded Events with integer
// keys, conventionally named *.pvlog.
package log
