// Package notify publishes domain events to the configured sinks.
// Delivery is best-effort: a failed publish is logged and never fails
// the operation that produced the event.
package notify

import (
	"context"
	"time"
)

// Event kinds.
const (
	KindLessonRequested      = "lesson.requested"
	KindLessonAssigned       = "lesson.assigned"
	KindLessonAccepted       = "lesson.accepted"
	KindLessonRejected       = "lesson.rejected"
	KindLessonDenied         = "lesson.denied"
	KindModificationProposed = "lesson.modification_proposed"
	KindTicketAdvanced       = "ticket.advanced"
	KindFlightCompleted      = "flight.completed"
)

// Event describes a lifecycle change for downstream consumers.
type Event struct {
	Kind            string    `json:"kind"`
	LessonRequestID string    `json:"lesson_request_id,omitempty"`
	TicketID        string    `json:"ticket_id,omitempty"`
	TicketNumber    string    `json:"ticket_number,omitempty"`
	ActorID         string    `json:"actor_id"`
	Status          string    `json:"status,omitempty"`
	Message         string    `json:"message,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several sinks, returning the first error
// after attempting all of them.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event Event) error {
	var first error
	for _, n := range m {
		if err := n.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
