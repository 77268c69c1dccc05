// Package services provides shared error classification and context
// annotation helpers used by drones, makers, and external code runners.
package services
