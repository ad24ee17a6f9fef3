package metrics

// SampledSink forwards every n-th step to Inner. Summaries and replacements
// are always forwarded.
type SampledSink struct {
	Inner MetricsSink
	cfg   Config
}

// NewSampledSink wraps inner with the step interval of cfg. Without an
// interval inner is returned unchanged.
func NewSampledSink(inner MetricsSink, cfg Config) MetricsSink {
	if cfg.StepInterval <= 1 {
		return inner
	}
	return &SampledSink{Inner: inner, cfg: cfg}
}

// RecordStep forwards the record when its timestep is kept. Steps with a
// shortfall are always forwarded.
func (s *SampledSink) RecordStep(rec StepRecord) error {
	if !s.cfg.Keep(rec.Timestep) && !rec.Shortfall() {
		return nil
	}
	return s.Inner.RecordStep(rec)
}

func (s *SampledSink) RecordRunSummary(sum RunSummary) error {
	if r, ok := s.Inner.(RunSummaryRecorder); ok {
		return r.RecordRunSummary(sum)
	}
	return nil
}

func (s *SampledSink) RecordReplacement(ev ReplacementEvent) error {
	if r, ok := s.Inner.(ReplacementRecorder); ok {
		return r.RecordReplacement(ev)
	}
	return nil
}

// Close closes Inner when it implements io.Closer.
func (s *SampledSink) Close() error {
	if c, ok := s.Inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
