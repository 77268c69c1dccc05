// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The Service interface covers the ingest and parse milestones so
// commands can emit consistent messages without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; all calling code
// depends only on the simple Service interface.
package notifications
