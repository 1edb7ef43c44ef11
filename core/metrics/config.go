package metrics

import "github.com/kilianp07/orplan/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint served by
	// the CLI. Empty disables it.
	PrometheusAddr string `json:"prometheus_addr"`
}
