// Package security derives a posture summary from the effective PIN
// configuration.
//
// # What this package must NOT do
//
//   - Read storage or inspect credential records; it sees configuration only.
//   - Import pinlock or any sibling package.
package security
