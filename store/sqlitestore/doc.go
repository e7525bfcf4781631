// Package sqlitestore implements store.Backend on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
//
// The schema is applied with goose from embedded migrations on Open. Records
// live in a key/value table; each workspace collection and the settings map
// get their own table. Wipe clears all of them in one transaction.
package sqlitestore
