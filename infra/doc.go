// Package infra contains technical adapters: the MQTT plan publisher, the
// zerolog logger and the Prometheus and InfluxDB run sinks. These packages
// depend only on interfaces defined in the core packages.
package infra
