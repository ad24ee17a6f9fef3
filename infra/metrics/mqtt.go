package metrics

import (
	coremetrics "github.com/kilianp07/microgrid/core/metrics"
	"github.com/kilianp07/microgrid/infra/mqtt"
)

// MQTTConfig configures an MQTTSink. Steps are published only when
// PublishSteps is set since a year-long run emits one message per timestep.
type MQTTConfig struct {
	mqtt.Config  `json:",squash"`
	PublishSteps bool `json:"publish_steps"`
}

// MQTTSink publishes run results as JSON documents under
// <prefix>/<run_id>/{step,summary,replacement}.
type MQTTSink struct {
	pub   mqtt.Publisher
	cfg   mqtt.Config
	steps bool
}

// NewMQTTSink wraps pub. cfg supplies the topic prefix.
func NewMQTTSink(pub mqtt.Publisher, cfg mqtt.Config, publishSteps bool) *MQTTSink {
	cfg.SetDefaults()
	return &MQTTSink{pub: pub, cfg: cfg, steps: publishSteps}
}

// RecordStep publishes the step when step publishing is enabled.
func (s *MQTTSink) RecordStep(rec coremetrics.StepRecord) error {
	if !s.steps {
		return nil
	}
	return s.pub.PublishJSON(s.cfg.Topic(rec.RunID, "step"), rec)
}

// RecordRunSummary publishes the summary of a finished run.
func (s *MQTTSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	return s.pub.PublishJSON(s.cfg.Topic(sum.RunID, "summary"), sum)
}

// RecordReplacement publishes a hydrogen sub-unit replacement.
func (s *MQTTSink) RecordReplacement(ev coremetrics.ReplacementEvent) error {
	return s.pub.PublishJSON(s.cfg.Topic(ev.RunID, "replacement"), ev)
}

// Close disconnects the underlying client when it supports it.
func (s *MQTTSink) Close() error {
	if d, ok := s.pub.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	return nil
}
