package metrics

import "github.com/kilianp07/orplan/core/factory"

var sinkRegistry = factory.NewRegistry[RunSink]()

// RegisterRunSink adds a run sink factory identified by name.
func RegisterRunSink(name string, f factory.Factory[RunSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewRunSink creates a RunSink from the provided configuration.
func NewRunSink(cfgs []factory.ModuleConfig) (RunSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]RunSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
