// Package store defines the persistence capabilities consumed by pinlock.
//
// A backend provides three things: a small record store for the credential
// and session blobs, the host application's item collections (projects,
// tasks, time entries) together with its settings, and a workspace-level wipe
// that clears all of it in one transaction.
//
// Implementations live in subpackages: [github.com/MrEthical07/pinlock/store/redisstore]
// and [github.com/MrEthical07/pinlock/store/sqlitestore].
//
// # What this package must NOT do
//
//   - Interpret record contents; values are opaque bytes.
//   - Import pinlock or any backend implementation.
package store
