// Package session provides session management for the warehouse simulator.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - Persistence to JSON files or a SQLite database
//   - Idle-session eviction
//
// Core Types:
//
// Manager owns the in-memory session map and, when configured, a
// SessionPersistence backend. Sessions missing from memory are loaded from
// the backend on first access. FilePersistence writes one JSON document per
// session; SQLitePersistence keeps the same document in a table row.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand, retried on
// collision. Lookups are case-insensitive.
//
// Persistence Format:
//
// A stored session embeds its scenario and its full state, with the grid in
// rendered form. Grids are re-validated on load, so a record holding two
// actors or a split pair is rejected instead of being restored.
//
// Usage:
//
//	store, err := session.OpenSQLitePersistence("sessions.db", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", scenario)
package session
