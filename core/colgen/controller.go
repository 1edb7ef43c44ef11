package colgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orplan/core/logger"
	"github.com/kilianp07/orplan/core/master"
	"github.com/kilianp07/orplan/core/model"
	"github.com/kilianp07/orplan/internal/eventbus"
)

// Controller drives column generation runs. It holds no per-run state and can
// serve concurrent runs as long as its solver does.
type Controller struct {
	solver master.Solver
	cfg    Config
	log    logger.Logger
	bus    *eventbus.TypedBus[Event]
	now    func() time.Time
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEventBus publishes every state transition on bus.
func WithEventBus(bus *eventbus.TypedBus[Event]) Option {
	return func(c *Controller) { c.bus = bus }
}

// NewController validates cfg and returns a controller using solver.
func NewController(solver master.Solver, cfg Config, opts ...Option) (*Controller, error) {
	if solver == nil {
		return nil, errors.New("master solver is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("colgen config: %w", err)
	}
	c := &Controller{solver: solver, cfg: cfg, log: logger.NopLogger{}, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// run carries the state of one invocation of Run.
type run struct {
	id        string
	category  string
	tasks     []model.Task
	rows      map[string]int
	pool      *Pool
	iteration int
	objective float64
}

func (r *run) problem(cost CostModel) master.Problem {
	plans := r.pool.Plans()
	p := master.Problem{
		Rows:    len(r.tasks),
		Columns: make([][]int, len(plans)),
		Costs:   make([]float64, len(plans)),
	}
	for k, plan := range plans {
		col := make([]int, len(plan.TaskIDs))
		for j, id := range plan.TaskIDs {
			col[j] = r.rows[id]
		}
		p.Columns[k] = col
		p.Costs[k] = cost.PlanCost(r.pool.Tasks(plan))
	}
	return p
}

// Run computes a covering of tasks by non-overlapping plans. Tasks are
// validated first; a *model.ValidationError is returned for malformed input.
// Fatal solver failures return a nil Result. A run is never resumable.
func (c *Controller) Run(ctx context.Context, tasks []model.Task) (*Result, error) {
	return c.run(ctx, "", tasks)
}

func (c *Controller) run(ctx context.Context, category string, tasks []model.Task) (*Result, error) {
	if err := model.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	started := c.now()
	r := &run{
		id:       uuid.NewString(),
		category: category,
		tasks:    make([]model.Task, len(tasks)),
		rows:     make(map[string]int, len(tasks)),
	}
	copy(r.tasks, tasks)
	for i, t := range r.tasks {
		r.rows[t.ID] = i
	}
	r.pool = NewPool(r.tasks)

	c.emit(r, StateSeeding, 0)
	for _, p := range Seed(r.tasks) {
		if _, _, err := r.pool.Add(p); err != nil {
			return nil, fmt.Errorf("run %s: seeding: %w", r.id, err)
		}
	}
	c.log.Infof("run %s: seeded %d plans for %d tasks", r.id, r.pool.Len(), len(r.tasks))

	res := &Result{RunID: r.id, Category: category, Status: StatusOptimal, Started: started}
	var warnings []error
	if !c.cfg.SkipPricing {
		limited, err := c.generate(ctx, r, res)
		if err != nil {
			runsTotal.WithLabelValues("failed").Inc()
			return nil, err
		}
		if limited {
			res.Status = StatusIterationLimit
			warnings = append(warnings, &NonTerminationWarning{Iterations: r.iteration})
		}
	}

	c.emit(r, StateFinalSolve, 0)
	final, err := c.solve(ctx, r, master.Integer)
	if err != nil {
		runsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if final.Truncated {
		if res.Status == StatusOptimal {
			res.Status = StatusNodeLimit
		}
		warnings = append(warnings, NodeLimitWarning{})
	}
	r.objective = final.Objective

	res.Plans = make([]model.Plan, 0, len(final.Selected))
	covered := make(map[string]struct{}, len(r.tasks))
	for _, k := range final.Selected {
		p := r.pool.Plan(k)
		res.Plans = append(res.Plans, p)
		for _, id := range p.TaskIDs {
			covered[id] = struct{}{}
		}
	}
	for _, t := range r.tasks {
		if _, ok := covered[t.ID]; !ok {
			runsTotal.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("run %s: %w: %q", r.id, ErrUncovered, t.ID)
		}
	}
	res.Objective = final.Objective
	res.Iterations = r.iteration
	res.Pool = r.pool.Plans()
	res.PoolSize = len(res.Pool)
	res.Warning = errors.Join(warnings...)
	res.Duration = c.now().Sub(started)
	runsTotal.WithLabelValues(res.Status.String()).Inc()
	c.emit(r, StateDone, 0)
	c.log.Infof("run %s: %d plans selected from a pool of %d after %d iterations (%s)",
		r.id, res.Rooms(), res.PoolSize, res.Iterations, res.Status)
	return res, nil
}

// generate alternates relaxed solves and pricing until no improving plan
// exists or the iteration cap is hit. It reports whether the cap stopped it.
func (c *Controller) generate(ctx context.Context, r *run, res *Result) (bool, error) {
	for {
		c.emit(r, StateRelaxedSolve, 0)
		sol, err := c.solve(ctx, r, master.Relaxed)
		if err != nil {
			return false, err
		}
		iterationsTotal.Inc()
		r.objective = sol.Objective
		res.RelaxedObjectives = append(res.RelaxedObjectives, sol.Objective)

		duals := make(map[string]float64, len(r.tasks))
		for i, t := range r.tasks {
			duals[t.ID] = sol.Duals[i]
		}
		c.emit(r, StatePricing, 0)
		plan, reduced, ok := Price(r.tasks, duals, c.cfg.Cost)
		c.log.Debugw("pricing", map[string]any{
			"run_id":            r.id,
			"iteration":         r.iteration,
			"pool_size":         r.pool.Len(),
			"relaxed_objective": sol.Objective,
			"reduced_cost":      reduced,
		})
		if !ok {
			c.emit(r, StateConverged, reduced)
			return false, nil
		}
		added, fresh, err := r.pool.Add(plan)
		if err != nil {
			return false, fmt.Errorf("run %s iteration %d: pricing produced invalid plan: %w", r.id, r.iteration, err)
		}
		if !fresh {
			c.log.Warnf("run %s iteration %d: priced plan %d already pooled (reduced cost %.3g); stopping",
				r.id, r.iteration, added.ID, reduced)
			c.emit(r, StateConverged, reduced)
			return false, nil
		}
		r.iteration++
		columnsAdded.Inc()
		c.emit(r, StateAddColumn, reduced)
		if r.iteration >= c.cfg.MaxIterations {
			c.log.Warnf("run %s: iteration cap %d reached before convergence", r.id, c.cfg.MaxIterations)
			c.emit(r, StateIterationLimit, reduced)
			return true, nil
		}
	}
}

// solve calls the master solver under the configured timeout and maps its
// failures to the run's error kinds. Only the expiry of that timeout is a
// SolverTimeoutError; a cancelled or expired ctx is returned wrapped.
func (c *Controller) solve(ctx context.Context, r *run, mode master.Mode) (master.Solution, error) {
	callCtx := ctx
	if c.cfg.SolverTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.SolverTimeout)
		defer cancel()
	}
	p := r.problem(c.cfg.Cost)
	start := time.Now()
	var (
		sol master.Solution
		err error
	)
	if mode == master.Relaxed {
		sol, err = c.solver.SolveRelaxed(callCtx, p)
	} else {
		sol, err = c.solver.SolveInteger(callCtx, p)
	}
	masterSolveSeconds.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, master.ErrInfeasible):
			return master.Solution{}, &InfeasibleMasterError{RunID: r.id, Iteration: r.iteration, Mode: mode, Err: err}
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return master.Solution{}, &SolverTimeoutError{RunID: r.id, Iteration: r.iteration, Mode: mode, Timeout: c.cfg.SolverTimeout}
		default:
			return master.Solution{}, fmt.Errorf("run %s iteration %d: %s solve: %w", r.id, r.iteration, mode, err)
		}
	}
	if mode == master.Relaxed && len(sol.Duals) != p.Rows {
		return master.Solution{}, fmt.Errorf("run %s iteration %d: solver returned %d duals for %d tasks",
			r.id, r.iteration, len(sol.Duals), p.Rows)
	}
	for _, k := range sol.Selected {
		if k < 0 || k >= len(p.Columns) {
			return master.Solution{}, fmt.Errorf("run %s: solver selected unknown plan %d", r.id, k)
		}
	}
	return sol, nil
}

func (c *Controller) emit(r *run, s State, reduced float64) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(Event{
		RunID:       r.id,
		Category:    r.category,
		State:       s,
		Iteration:   r.iteration,
		PoolSize:    r.pool.Len(),
		Objective:   r.objective,
		ReducedCost: reduced,
		Time:        c.now(),
	})
}
