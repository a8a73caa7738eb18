package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aviary-labs/flightdesk/internal/model"
	"github.com/aviary-labs/flightdesk/internal/monitoring"
	"github.com/aviary-labs/flightdesk/internal/notify"
	"github.com/aviary-labs/flightdesk/internal/repository"
)

// LessonTicketStore persists lesson tickets and their synchronized
// request-side status.
type LessonTicketStore interface {
	GetByID(ctx context.Context, id string) (*model.LessonTicket, error)
	ListByCFI(ctx context.Context, cfiID string, status *model.TicketStatus) ([]*model.LessonTicket, error)
	Advance(ctx context.Context, id string, target model.TicketStatus) error
	Complete(ctx context.Context, id string, hobbsIn, hobbsOut decimal.Decimal, notes string) error
}

// TicketService drives the instructor-facing ticket workflow.
type TicketService struct {
	tickets  LessonTicketStore
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewTicketService(tickets LessonTicketStore, notifier notify.Notifier, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:  tickets,
		notifier: notifier,
		logger:   logger,
	}
}

// ListTickets returns a CFI's tickets, optionally filtered by status.
// Instructors see only their own queue; administrators may name any CFI.
func (s *TicketService) ListTickets(ctx context.Context, actor model.Actor, cfiID string, status *model.TicketStatus) ([]*model.LessonTicket, error) {
	switch actor.Role {
	case model.RoleInstructor:
		cfiID = actor.UserID
	case model.RoleAdministrator:
		if cfiID == "" {
			return nil, validationf("cfi_id is required")
		}
	default:
		return nil, ErrForbidden
	}
	return s.tickets.ListByCFI(ctx, cfiID, status)
}

// AdvanceTicket moves a ticket to target and the linked request with it.
// Completion goes through CompleteFlight so the flight log is recorded.
func (s *TicketService) AdvanceTicket(ctx context.Context, actor model.Actor, ticketID string, target model.TicketStatus) error {
	switch target {
	case model.TicketStatusAssigned, model.TicketStatusAccepted,
		model.TicketStatusRejected, model.TicketStatusInProgress:
	case model.TicketStatusCompleted:
		return validationf("completing a ticket requires the flight log")
	default:
		return validationf("unknown ticket status %q", target)
	}

	ticket, err := s.requireTicket(ctx, actor, ticketID)
	if err != nil {
		return err
	}

	if err := s.tickets.Advance(ctx, ticketID, target); err != nil {
		return err
	}

	monitoring.LessonTransitions.WithLabelValues(string(target.RequestStatus())).Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindTicketAdvanced,
		LessonRequestID: ticket.LessonRequestID,
		TicketID:        ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		ActorID:         actor.UserID,
		Status:          string(target),
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Ticket advanced",
		zap.String("ticket_id", ticketID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("status", string(target)),
	)
	return nil
}

// CompleteFlight finishes an in_progress ticket with its Hobbs-meter
// readings. hobbsOut must exceed hobbsIn; flight duration is the
// difference.
func (s *TicketService) CompleteFlight(ctx context.Context, actor model.Actor, ticketID string, hobbsIn, hobbsOut decimal.Decimal, notes string) error {
	if hobbsOut.LessThanOrEqual(hobbsIn) {
		return validationf("hobbs out %s must be greater than hobbs in %s", hobbsOut, hobbsIn)
	}

	ticket, err := s.requireTicket(ctx, actor, ticketID)
	if err != nil {
		return err
	}

	if err := s.tickets.Complete(ctx, ticketID, hobbsIn, hobbsOut, notes); err != nil {
		return err
	}

	monitoring.LessonTransitions.WithLabelValues(string(model.LessonStatusCompleted)).Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindFlightCompleted,
		LessonRequestID: ticket.LessonRequestID,
		TicketID:        ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		ActorID:         actor.UserID,
		Status:          string(model.TicketStatusCompleted),
		Message:         "flight time " + hobbsOut.Sub(hobbsIn).String(),
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Flight completed",
		zap.String("ticket_id", ticketID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("duration", hobbsOut.Sub(hobbsIn).String()),
	)
	return nil
}

// GetTicket returns a ticket visible to the actor.
func (s *TicketService) GetTicket(ctx context.Context, actor model.Actor, ticketID string) (*model.LessonTicket, error) {
	return s.requireTicket(ctx, actor, ticketID)
}

// requireTicket loads a ticket and checks the actor may act on it: its
// CFI, or any administrator.
func (s *TicketService) requireTicket(ctx context.Context, actor model.Actor, ticketID string) (*model.LessonTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, repository.ErrNotFound
	}
	switch actor.Role {
	case model.RoleAdministrator:
	case model.RoleInstructor:
		if ticket.CFIID != actor.UserID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event notify.Event) {
	_ = s.notifier.Publish(ctx, event)
}
