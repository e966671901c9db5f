// Package otel exposes engine counters as OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per latency bucket. A single callback reads
// vms.Engine.MetricsSnapshot on each collection. Callers own the
// MeterProvider.
package otel
