// Package otel binds engine counters and histograms to OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter
// and an Int64ObservableGauge per histogram bucket. A single callback
// reads [realmauth.Engine.MetricsSnapshot] on each collection cycle.
//
// The exporter never owns the MeterProvider; callers supply the Meter.
package otel
