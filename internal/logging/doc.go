// Package logging assembles structured slog loggers used across atomflow
// components. It owns the console/JSON handler construction, centralizes
// level and output plumbing, and exposes context-aware helpers so drones and
// makers automatically tag log lines with job IDs and calculation
// directories. A no-op logger is provided for tests and wiring code.
package logging
