package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusAccepted   TicketStatus = "accepted"
	TicketStatusRejected   TicketStatus = "rejected"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
)

// LessonTicket is the instructor-facing projection of a lesson request's
// progress. It is created in the same transaction as its request and its
// status must stay synchronized with the request's.
type LessonTicket struct {
	ID              string       `json:"id"`
	TicketNumber    string       `json:"ticket_number"`
	LessonRequestID string       `json:"lesson_request_id"`
	CFIID           string       `json:"cfi_id"`
	Status          TicketStatus `json:"status"`

	// Flight-completion log, set when the ticket reaches completed.
	HobbsIn  *decimal.Decimal `json:"hobbs_in,omitempty"`
	HobbsOut *decimal.Decimal `json:"hobbs_out,omitempty"`
	Notes    string           `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:    {TicketStatusAssigned, TicketStatusAccepted, TicketStatusRejected},
	TicketStatusAssigned:   {TicketStatusAccepted, TicketStatusRejected},
	TicketStatusAccepted:   {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusCompleted},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	for _, next := range ticketTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s TicketStatus) IsTerminal() bool {
	return len(ticketTransitions[s]) == 0
}

// RequestStatus maps a ticket status to the lesson-request status it
// shadows. The vocabularies match one-to-one; the request-side "denied"
// status is reached only through the student review flow and maps back
// onto the ticket as rejected.
func (s TicketStatus) RequestStatus() LessonRequestStatus {
	return LessonRequestStatus(s)
}

// TicketStatusForRequest is the inverse mapping, used when a request
// transition drives the ticket.
func TicketStatusForRequest(s LessonRequestStatus) TicketStatus {
	if s == LessonStatusDenied {
		return TicketStatusRejected
	}
	return TicketStatus(s)
}

// NewTicketNumber generates an externally visible ticket number. The
// timestamp keeps numbers roughly sortable; the uuid fragment keeps them
// unique when two tickets are created in the same second.
func NewTicketNumber(now time.Time) string {
	return fmt.Sprintf("TKT-%s-%s", now.UTC().Format("20060102150405"), uuid.NewString()[:8])
}

// FlightDuration returns hobbsOut - hobbsIn for a completed ticket, or
// zero when the flight log is absent.
func (t *LessonTicket) FlightDuration() decimal.Decimal {
	if t.HobbsIn == nil || t.HobbsOut == nil {
		return decimal.Zero
	}
	return t.HobbsOut.Sub(*t.HobbsIn)
}
