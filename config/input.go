package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/orplan/ingest"
)

// InputConfig defines how task files are read.
type InputConfig struct {
	// Categories restricts planning to these specialties.
	Categories []string `json:"categories"`
	// Timezone applies to timestamps written without an offset.
	Timezone string `json:"timezone"`
	// Format overrides detection from the file extension.
	Format string `json:"format"`
	// Costs is an optional room by operation cost matrix (CSV). When set,
	// task weights are the mean operation cost over rooms and plans are
	// charged by task weight.
	Costs string `json:"costs"`
	// Remote configures downloads when the task source is an URL.
	Remote ingest.RemoteConfig `json:"remote"`
}

// Validate checks mandatory fields.
func (c InputConfig) Validate() error {
	if _, err := c.location(); err != nil {
		return err
	}
	if c.Remote.TimeoutSeconds < 0 {
		return fmt.Errorf("remote timeout must not be negative")
	}
	switch c.Format {
	case "", "csv", "json", "yaml", "yml":
		return nil
	default:
		return fmt.Errorf("unknown format %s", c.Format)
	}
}

func (c InputConfig) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// Options converts the section to loader options.
func (c InputConfig) Options() ingest.Options {
	loc, err := c.location()
	if err != nil {
		loc = time.UTC
	}
	return ingest.Options{Categories: c.Categories, Location: loc, Format: c.Format}
}
