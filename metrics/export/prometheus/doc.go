// Package prometheus renders pinlock state in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [pinlock.Engine] and exposes an
// [http.Handler]. The lockout gauges (pinlock_failed_attempts, pinlock_locked,
// pinlock_lockout_remaining_seconds) reflect the stored credential and are
// always rendered. Operation counters (pinlock_*_total) and the
// pinlock_derive_latency_seconds histogram count this process only and are
// rendered when the engine collects metrics.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
