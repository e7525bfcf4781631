// Package pinlock provides local PIN protection for a single-user workspace:
// salted key derivation, constant-time verification, failure lockout with
// exponential backoff, a singleton session, and a destructive recovery path.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Every facade operation runs under
// one engine mutex, so concurrent logins never race on the failure counter.
//
// # Architecture boundaries
//
// pinlock is the public surface. It exposes [Engine], [Builder], [Config] and
// value types ([State], [LockInfo], [AttemptsInfo], [SessionInfo]). Credential
// encoding, lockout arithmetic and audit dispatch live in sub-packages and
// under internal/. Storage is consumed through [store.Backend]; the redisstore
// and sqlitestore packages provide implementations.
//
// # What this package must NOT do
//
//   - Log or return PINs, salts, derived secrets or session tokens in errors.
//   - Start timers; lockout and session expiry are evaluated lazily.
//   - Import any sub-package that re-imports pinlock (no import cycles).
package pinlock
