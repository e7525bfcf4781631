// Package pin implements PIN secret derivation, salt generation, constant-time
// comparison and PIN format rules.
//
// # Algorithms
//
// The default algorithm is PBKDF2-HMAC-SHA256 with 150,000 iterations and a
// 32-byte output. Argon2id is available for installations that prefer a
// memory-hard function; its Iterations field is the Argon2 time cost.
//
// Derived secrets are raw bytes. Encoding and persistence belong to the
// credential package.
//
// # Architecture boundaries
//
// This package owns derivation and format validation only. Lockout policy and
// record persistence are enforced by callers.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials.
//   - Import any other pinlock package.
//   - Log PINs, salts or derived secrets.
package pin
