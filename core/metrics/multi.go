package metrics

import "errors"

// MultiSink fans out records to several sinks.
type MultiSink struct {
	Sinks []RunSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the run to every sink. A failing sink does not stop
// the others; all errors are returned joined.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordIteration forwards the snapshot to sinks implementing
// IterationRecorder.
func (m *MultiSink) RecordIteration(ev IterationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(IterationRecorder); ok {
			if err := r.RecordIteration(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
