package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Publisher sends JSON documents to a topic.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

var _ Publisher = (*PahoPublisher)(nil)

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Messages  map[string][][]byte
	FailTopic map[string]bool
	mu        sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages:  make(map[string][][]byte),
		FailTopic: make(map[string]bool),
	}
}

// PublishJSON records the payload or returns an error if configured to fail.
func (m *MockPublisher) PublishJSON(topic string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTopic[topic] {
		return fmt.Errorf("publish failed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.Messages[topic] = append(m.Messages[topic], b)
	return nil
}

// Count returns the number of payloads recorded on topic.
func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[topic])
}
