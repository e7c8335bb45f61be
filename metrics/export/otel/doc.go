// Package otel publishes subAuth engine metrics through an OpenTelemetry
// [go.opentelemetry.io/otel/metric.Meter].
//
// Each engine counter becomes an Int64ObservableCounter. Each latency
// histogram becomes one Int64ObservableGauge per cumulative bucket plus a
// count gauge. One callback reads the engine snapshot per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
