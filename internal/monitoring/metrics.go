// Package monitoring registers the service's Prometheus collectors.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LessonRequestsCreated counts lesson requests accepted for creation.
	LessonRequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdesk_lesson_requests_created_total",
		Help: "Lesson requests created.",
	})

	// LessonTransitions counts lifecycle transitions by target status.
	LessonTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdesk_lesson_transitions_total",
		Help: "Lesson request lifecycle transitions.",
	}, []string{"to"})

	// AvailabilityQueries counts availability resolutions by entity type.
	AvailabilityQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightdesk_availability_queries_total",
		Help: "Availability resolver invocations.",
	}, []string{"entity_type"})

	// SlotConflicts counts reservations lost to an already-taken slot.
	SlotConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdesk_slot_conflicts_total",
		Help: "Slot reservations rejected because the slot was taken.",
	})
)
