// Package store provides persistence for scan records.
//
// Two implementations are available: an in-memory store used by the HTTP
// service and the default CLI flow, and a SQLite-backed store for callers
// that want scan history to survive process restarts. Both satisfy the
// Store interface, so the engine is unaware of which one it drives.
package store
