// Package config loads, normalizes, and validates nekotatsu configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and carries the per-resource URL overrides
// the settings UI of the original application persisted. Always obtain
// settings through this package so downstream code receives sanitized paths
// and clear validation errors.
package config
