package metrics

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStep forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordStep(rec StepRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordStep(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunSummary forwards the summary when supported by the sink.
func (m *MultiSink) RecordRunSummary(sum RunSummary) error {
	for _, s := range m.Sinks {
		if r, ok := s.(RunSummaryRecorder); ok {
			if err := r.RecordRunSummary(sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordReplacement forwards replacement events when supported by the sink.
func (m *MultiSink) RecordReplacement(ev ReplacementEvent) error {
	for _, s := range m.Sinks {
		if r, ok := s.(ReplacementRecorder); ok {
			if err := r.RecordReplacement(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer and returns the first error.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
