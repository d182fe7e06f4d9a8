// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType classifies pipeline lifecycle notifications.
type EventType string

const (
	EventRunStarted     EventType = "run.started"
	EventRunCompleted   EventType = "run.completed"
	EventRunFailed      EventType = "run.failed"
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
)

type (
	// Event is one lifecycle notification.
	Event struct {
		Type  EventType
		RunID string
		Stage string
		Time  time.Time
	}

	// Listener receives published events.
	Listener func(Event)

	registration struct {
		id       uuid.UUID
		listener Listener
	}

	// EventBus is the in-process event registration API. Listeners are
	// notified synchronously in registration order.
	EventBus struct {
		mu            sync.Mutex
		registrations []registration
	}
)

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Register adds a listener and returns its registration handle.
func (b *EventBus) Register(l Listener) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	b.registrations = append(b.registrations, registration{id: id, listener: l})
	return id
}

// Unregister removes the listener registered under id.
func (b *EventBus) Unregister(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, reg := range b.registrations {
		if reg.id == id {
			b.registrations = append(b.registrations[:i], b.registrations[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every registered listener. A zero Time is
// stamped with the current time.
func (b *EventBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.Lock()
	listeners := make([]Listener, len(b.registrations))
	for i, reg := range b.registrations {
		listeners[i] = reg.listener
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(e)
	}
}
