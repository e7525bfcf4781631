// Package limiters provides the PIN lockout policy.
//
// # Policy
//
//   - [LockoutPolicy.Backoff]: min(Base * 2^(failures-Max), MaxDuration) once the
//     threshold is reached.
//   - [LockoutPolicy.Status]: lazy lock evaluation against a caller-supplied now.
//   - [LockoutPolicy.RegisterFailure]: next failure count and lockout deadline.
//
// # Architecture boundaries
//
// The policy is pure: it never reads clocks, stores or random sources. The
// credential store persists whatever the policy returns.
//
// # What this package must NOT do
//
//   - Import pinlock or any sibling package.
//   - Make persistence decisions; callers decide when to write.
package limiters
