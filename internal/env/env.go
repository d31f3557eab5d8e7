// Package env holds process-wide ambient knobs: debug toggles, default
// timeouts, and the shutdown signal. It plays the role nano's
// internal/env package plays (Debug, Die, Heartbeat), scoped down to what
// a client library — rather than a listening server — actually needs.
package env

import "time"

var (
	// Debug is a verbose-logging toggle mirroring nano's env.Debug; no
	// tgcore package reads it.
	Debug bool

	// Die is a process-wide shutdown channel; no tgcore package closes or
	// reads it (UserAgent.Shutdown closes each Connection and the timer
	// service directly).
	Die = make(chan struct{})

	// DefaultTimeout is the fallback Query.timeout_interval() (§4.6) for
	// call families that do not override it.
	DefaultTimeout = 10 * time.Second

	// FileTransferTimeout is the longer interval §4.6 calls for on
	// is_file_transfer queries.
	FileTransferTimeout = 5 * time.Minute

	// DefaultFloodWait is the retry delay §4.5 falls back to when a
	// FLOOD_WAIT_N string fails to parse.
	DefaultFloodWait = 10 * time.Second

	// GzipMaxInflateBytes bounds the §4.7 gzip_packed inflate buffer.
	GzipMaxInflateBytes = 16 * 1024 * 1024

	// SchemeLayer is the TL layer number declared by invoke_with_layer
	// (§6 Envelope level).
	SchemeLayer int32 = 45

	// MaxDCNum bounds the migration target parsed in §4.5's 303 handling.
	MaxDCNum = 100
)
