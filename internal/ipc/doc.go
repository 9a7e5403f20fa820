// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. The
// server embeds the daemon; the client keeps CLI commands thin wrappers over
// remote calls so the daemon stays the single session owner.
package ipc
