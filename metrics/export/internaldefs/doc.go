// Package internaldefs holds the metric names, help text and readers shared by
// the exporters.
//
// Counter, histogram and gauge definitions live here so that the Prometheus
// and OTel exporters publish identical names and bucket boundaries. Lockout
// gauges are read through [ReadLockout] on every collection.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O beyond the engine reads in [ReadLockout].
package internaldefs
