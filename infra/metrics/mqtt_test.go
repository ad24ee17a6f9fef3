package metrics

import (
	"encoding/json"
	"testing"

	coremetrics "github.com/kilianp07/microgrid/core/metrics"
	"github.com/kilianp07/microgrid/infra/mqtt"
)

func TestMQTTSink_Topics(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	sink := NewMQTTSink(pub, mqtt.Config{TopicPrefix: "site"}, false)

	if err := sink.RecordStep(coremetrics.StepRecord{RunID: "r1"}); err != nil {
		t.Fatalf("step: %v", err)
	}
	if pub.Count("site/r1/step") != 0 {
		t.Fatalf("steps published while disabled")
	}
	if err := sink.RecordRunSummary(coremetrics.RunSummary{RunID: "r1", Steps: 3}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if err := sink.RecordReplacement(coremetrics.ReplacementEvent{RunID: "r1", Unit: "fuel_cell"}); err != nil {
		t.Fatalf("replacement: %v", err)
	}
	if pub.Count("site/r1/summary") != 1 || pub.Count("site/r1/replacement") != 1 {
		t.Fatalf("unexpected messages: %v", pub.Messages)
	}
	var sum coremetrics.RunSummary
	if err := json.Unmarshal(pub.Messages["site/r1/summary"][0], &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Steps != 3 {
		t.Fatalf("steps %d", sum.Steps)
	}
}

func TestMQTTSink_PublishSteps(t *testing.T) {
	pub := mqtt.NewMockPublisher()
	sink := NewMQTTSink(pub, mqtt.Config{}, true)
	if err := sink.RecordStep(coremetrics.StepRecord{RunID: "r1"}); err != nil {
		t.Fatalf("step: %v", err)
	}
	if pub.Count("microgrid/r1/step") != 1 {
		t.Fatalf("step not published: %v", pub.Messages)
	}
	pub.FailTopic["microgrid/r1/step"] = true
	if err := sink.RecordStep(coremetrics.StepRecord{RunID: "r1"}); err == nil {
		t.Fatalf("expected publish error")
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
