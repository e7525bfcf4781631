// Package otel binds pinlock state to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers Float64ObservableGauges for the stored lockout
// (failed attempts, allowance, locked flag, remaining seconds), observable
// counters for the audit dispatcher and the engine operations, and an
// Int64ObservableGauge per derivation latency bucket. One callback reads the
// engine on each collection cycle, using the collection context for the
// lockout reads.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
