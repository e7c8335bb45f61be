// Package prometheus exposes subAuth engine metrics as a
// [github.com/prometheus/client_golang/prometheus.Collector].
//
// Counters are named subauth_*_total. The latency histograms are
// subauth_validate_latency_seconds, subauth_sign_in_latency_seconds and
// subauth_refresh_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the
//     [Exporter] themselves or mount [Exporter.Handler].
//   - Mutate engine state.
package prometheus
