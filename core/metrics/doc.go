// Package metrics defines the sinks that observe a dispatch run. Every sink
// records per-timestep StepRecords; sinks may additionally implement
// RunSummaryRecorder or ReplacementRecorder. Several sinks are combined with
// NewMultiSink, which NewMetricsSink does automatically when more than one
// sink is configured. Implementations register themselves by name through
// RegisterMetricsSink.
package metrics
