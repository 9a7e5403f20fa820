// Package main hosts the nekotatsu CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon: resource downloads, path selection, conversion runs,
// log tailing, run history, and configuration scaffolding. It centralizes
// configuration resolution and socket discovery so subcommands stay thin.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
