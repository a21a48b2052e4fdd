// Package telemetry provides OpenTelemetry instrumentation for the WEFT
// coordinator. Metrics are exported through the Prometheus exporter on the
// default Prometheus registry; tracing uses the global tracer provider.
package telemetry
