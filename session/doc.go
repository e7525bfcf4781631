// Package session manages the single local session that marks the workspace
// as unlocked.
//
// # Binary encoding
//
// The session is stored under one key of a store.Records backend as a compact
// versioned binary blob: version byte, length-prefixed token, then created
// and expiry times in Unix milliseconds (expiry 0 means the session never
// expires).
//
// # Expiry
//
// There are no timers. Expiry is checked lazily by [Manager.IsValid], which
// deletes a stale record as part of the check.
//
// # What this package must NOT do
//
//   - Import pinlock or credential (no upward imports).
//   - Decide whether a PIN is required; that belongs to the Engine.
package session
