package master

import "github.com/kilianp07/orplan/core/factory"

var solverRegistry = factory.NewRegistry[Solver]()

// init registers built-in solvers.
func init() {
	_ = RegisterSolver("simplex", func(conf map[string]any) (Solver, error) {
		var c SimplexConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.SetDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewSimplex(c), nil
	})
}

// RegisterSolver adds a solver factory identified by name.
func RegisterSolver(name string, f factory.Factory[Solver]) error {
	return solverRegistry.Register(name, f)
}

// NewSolver creates a Solver from configuration. An empty type selects the
// simplex solver.
func NewSolver(cfg factory.ModuleConfig) (Solver, error) {
	if cfg.Type == "" {
		cfg.Type = "simplex"
	}
	return solverRegistry.Create(cfg)
}
