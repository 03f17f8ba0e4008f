// Package kvstore provides key-value backends for config.Store.
//
// Every backend stores opaque string values under string keys and satisfies
// config.KeyValue. Pick the one matching where the client keeps its settings:
//
//   - Memory: process-local, for tests and ephemeral sessions
//   - File: one JSON document per key inside a directory, with change notification
//   - SQLite: a single table in a local database file
//   - NATS: a JetStream key-value bucket shared between processes
package kvstore
