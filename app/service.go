package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/orplan/config"
	"github.com/kilianp07/orplan/core/colgen"
	"github.com/kilianp07/orplan/core/history"
	"github.com/kilianp07/orplan/core/master"
	coremetrics "github.com/kilianp07/orplan/core/metrics"
	"github.com/kilianp07/orplan/core/model"
	coremqtt "github.com/kilianp07/orplan/core/mqtt"
	"github.com/kilianp07/orplan/infra/logger"
	"github.com/kilianp07/orplan/infra/metrics"
	"github.com/kilianp07/orplan/infra/mqtt"
	"github.com/kilianp07/orplan/internal/eventbus"
)

// Service runs the optimizer and fans every outcome out to run history,
// metrics sinks and the plan publisher.
type Service struct {
	controller *colgen.Controller
	store      history.Store
	sink       coremetrics.RunSink
	publisher  coremqtt.Publisher
	bus        *eventbus.TypedBus[colgen.Event]
	log        logger.Logger
	promAddr   string
	closers    []func() error
	now        func() time.Time
	// collected is closed once the iteration collector has drained the bus.
	collected <-chan struct{}
}

// Deps groups the collaborators of a Service. Nil fields are replaced by
// no-op implementations.
type Deps struct {
	Controller *colgen.Controller
	Store      history.Store
	Sink       coremetrics.RunSink
	Publisher  coremqtt.Publisher
	Bus        *eventbus.TypedBus[colgen.Event]
	Logger     logger.Logger
}

// NewWithDeps assembles a Service from already built collaborators.
func NewWithDeps(d Deps) (*Service, error) {
	if d.Controller == nil {
		return nil, errors.New("controller is required")
	}
	s := &Service{
		controller: d.Controller,
		store:      d.Store,
		sink:       d.Sink,
		publisher:  d.Publisher,
		bus:        d.Bus,
		log:        d.Logger,
		now:        time.Now,
	}
	if s.store == nil {
		s.store = history.NopStore{}
	}
	if s.sink == nil {
		s.sink = coremetrics.NopSink{}
	}
	if s.publisher == nil {
		s.publisher = coremqtt.NopPublisher{}
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	return s, nil
}

// New builds a Service from the configuration. It connects to the MQTT broker
// when one is configured.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	solver, err := master.NewSolver(cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	bus := eventbus.NewTypedWithBuffer[colgen.Event](256)
	ctrl, err := colgen.NewController(solver, cfg.Optimizer,
		colgen.WithLogger(logger.New("colgen")), colgen.WithEventBus(bus))
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewRunSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, err
	}
	d := Deps{Controller: ctrl, Store: store, Sink: sink, Bus: bus, Logger: log}
	var pub *mqtt.PahoPublisher
	if cfg.MQTT.Enabled() {
		pub, err = mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		d.Publisher = pub
	}
	svc, err := NewWithDeps(d)
	if err != nil {
		return nil, err
	}
	svc.promAddr = cfg.Metrics.PrometheusAddr
	svc.closers = append(svc.closers, store.Close)
	if pub != nil {
		svc.closers = append(svc.closers, func() error { pub.Disconnect(); return nil })
	}
	if c, ok := sink.(interface{ Close() }); ok {
		svc.closers = append(svc.closers, func() error { c.Close(); return nil })
	}
	return svc, nil
}

// Start launches background workers: the iteration collector and, when an
// address is configured, the Prometheus endpoint. They stop with ctx.
func (s *Service) Start(ctx context.Context) {
	s.collected = metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Config returns the optimizer configuration in effect.
func (s *Service) Config() colgen.Config { return s.controller.Config() }

// Plan solves tasks, either as one problem or one problem per category.
// Results are keyed by category; the single-problem result uses the empty
// key. source labels the run in history.
func (s *Service) Plan(ctx context.Context, tasks []model.Task, byCategory bool, source string) (map[string]*colgen.Result, error) {
	var (
		results map[string]*colgen.Result
		err     error
	)
	if byCategory {
		results, err = colgen.SolveGroups(ctx, s.controller, tasks)
	} else {
		var res *colgen.Result
		res, err = s.controller.Run(ctx, tasks)
		if err == nil {
			results = map[string]*colgen.Result{"": res}
		}
	}
	if err != nil {
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			category := ""
			var gerr *colgen.GroupError
			if errors.As(err, &gerr) {
				category = gerr.Category
			}
			if serr := s.sink.RecordRun(metrics.RunEvent(category, nil, err)); serr != nil {
				s.log.Warnf("record failed run: %v", serr)
			}
		}
		return nil, err
	}

	counts := make(map[string]int)
	for _, t := range tasks {
		if byCategory {
			counts[t.Category]++
		} else {
			counts[""]++
		}
	}
	for category, res := range results {
		s.record(ctx, res, source, counts[category])
	}
	return results, nil
}

// record stores and announces a successful run. Failures are logged only: a
// plan that was computed is returned even when a side channel is down.
func (s *Service) record(ctx context.Context, res *colgen.Result, source string, tasks int) {
	if err := s.store.Append(ctx, history.FromResult(res, source, tasks)); err != nil {
		s.log.Errorf("history append for run %s: %v", res.RunID, err)
	}
	if err := s.sink.RecordRun(metrics.RunEvent(res.Category, res, nil)); err != nil {
		s.log.Warnf("metrics for run %s: %v", res.RunID, err)
	}
	if err := s.publisher.Publish(ctx, coremqtt.NewPlanMessage(res, s.now())); err != nil {
		s.log.Errorf("publish run %s: %v", res.RunID, err)
	}
	if res.Warning != nil {
		s.log.Warnf("run %s: %v", res.RunID, res.Warning)
	}
}

// Runs queries past runs.
func (s *Service) Runs(ctx context.Context, q history.Query) ([]history.RunRecord, error) {
	return s.store.Query(ctx, q)
}

// Close closes the event bus and waits for the iteration collector to drain
// it, then releases the history store, the MQTT connection and the metrics
// sinks.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	if s.collected != nil {
		<-s.collected
	}
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
