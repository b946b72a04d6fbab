package service

import (
	"sync"

	"textgend/internal/logx"
)

// Event names published by Service.
const (
	EventModelLoading       = "model_loading"
	EventModelReady         = "model_ready"
	EventModelError         = "model_error"
	EventGenerationComplete = "generation_complete"
	EventGenerationFailed   = "generation_failed"
)

// Event represents a service lifecycle event: a name plus optional fields.
type Event struct {
	Name   string
	Fields map[string]any
}

// EventPublisher receives events from the service. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes events to the shared logger at debug level.
type LogPublisher struct{}

func (LogPublisher) Publish(e Event) {
	ev := logx.Log.Debug().Str("event", e.Name)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("service event")
}

// MemoryPublisher stores events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Names returns the event names in publish order.
func (p *MemoryPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Name
	}
	return out
}
