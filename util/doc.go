// Package util holds small generic helpers shared across packages:
// pointer helpers for nullable fields and parsing for human-readable
// config values.
package util
