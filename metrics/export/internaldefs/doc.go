// Package internaldefs holds the metric names and bucket bounds shared by
// the exporters, so Prometheus and OpenTelemetry expose identical series.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
