// Package logging builds the slog loggers used across nekotatsu.
//
// It provides a human-readable console handler, a JSON handler, attr
// helpers shared by every component, and the StreamHub: a bounded
// in-memory buffer that republishes every log record so the CLI can
// stream daemon output over IPC. Lines published before a client
// attaches stay buffered up to the hub capacity instead of being
// dropped.
package logging
