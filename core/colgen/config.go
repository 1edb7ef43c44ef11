package colgen

import (
	"fmt"
	"time"
)

// Config defines column generation settings.
type Config struct {
	// MaxIterations caps the number of columns added by pricing.
	MaxIterations int `json:"max_iterations"`
	// SkipPricing solves the integer master over the seeded pool only.
	SkipPricing bool `json:"skip_pricing"`
	// SolverTimeout bounds every master solve. Zero disables the bound.
	SolverTimeout time.Duration `json:"solver_timeout"`
	// Parallelism limits concurrently solved categories in SolveGroups.
	Parallelism int       `json:"parallelism"`
	Cost        CostModel `json:"cost"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 500
	}
	if c.SolverTimeout == 0 {
		c.SolverTimeout = 30 * time.Second
	}
	if c.Parallelism == 0 {
		c.Parallelism = 4
	}
	if c.Cost.Fixed == 0 && !c.Cost.TaskWeighted {
		c.Cost = UnitCost()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.SolverTimeout < 0 {
		return fmt.Errorf("solver_timeout must not be negative")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be positive")
	}
	if err := c.Cost.Validate(); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	return nil
}
