// Package metrics defines the sinks that record optimizer runs for
// observability. Sinks like the Prometheus and InfluxDB implementations in
// infra/metrics record one RunEvent per finished run and, when they implement
// IterationRecorder, one IterationEvent per pricing round. NewRunSink returns a
// MultiSink automatically when several sinks are configured.
package metrics
