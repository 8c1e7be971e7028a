package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}

// Message is one event captured by a Recorder.
type Message struct {
	Topic   string
	Payload json.RawMessage
}

// Recorder is an in-memory Publisher that keeps every JSON-encoded event.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Topic: topic, Payload: data})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Topics returns the topics published so far, in order.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Topic
	}
	return out
}
