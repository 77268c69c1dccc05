// Package config loads, normalizes, and validates atomflow's TOML
// configuration. Paths are tilde-expanded and made absolute during load so
// downstream packages never deal with relative or user-relative paths.
package config
