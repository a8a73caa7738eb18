package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aviary-labs/flightdesk/internal/model"
	"github.com/aviary-labs/flightdesk/internal/monitoring"
	"github.com/aviary-labs/flightdesk/internal/notify"
	"github.com/aviary-labs/flightdesk/internal/repository"
)

// LessonRequestStore persists lesson requests and their shadow tickets.
type LessonRequestStore interface {
	CreateWithTicket(ctx context.Context, req *model.LessonRequest, ticket *model.LessonTicket) error
	GetByID(ctx context.Context, id string) (*model.LessonRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.LessonRequest, error)
	Approve(ctx context.Context, id, cfiMessage string) error
	Reject(ctx context.Context, id, cfiMessage string) error
	ProposeModification(ctx context.Context, id string, mod model.Modification, cfiMessage string) error
	ResolveReview(ctx context.Context, id string, accept bool, studentMessage string) error
	AssignResources(ctx context.Context, id string, cfiID, aircraftID *string) error
}

// LessonService drives the lesson request lifecycle.
type LessonService struct {
	requests LessonRequestStore
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewLessonService(requests LessonRequestStore, notifier notify.Notifier, logger *zap.Logger) *LessonService {
	return &LessonService{
		requests: requests,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateLessonInput is a student's ask: slot, pre-selected CFI and
// aircraft, optional note.
type CreateLessonInput struct {
	CFIID      string
	AircraftID string
	Date       string
	StartTime  string
	EndTime    string
	Message    string
}

// CreateRequest validates and stores a new lesson request together with
// its instructor-facing ticket.
func (s *LessonService) CreateRequest(ctx context.Context, actor model.Actor, input CreateLessonInput) (*model.LessonRequest, *model.LessonTicket, error) {
	if !actor.IsStudent() {
		return nil, nil, ErrForbidden
	}
	if input.CFIID == "" || input.AircraftID == "" {
		return nil, nil, validationf("cfi_id and aircraft_id are required")
	}
	if _, err := model.ParseDate(input.Date); err != nil {
		return nil, nil, validationf("%v", err)
	}
	start, err := model.ParseTimeOfDay(input.StartTime)
	if err != nil {
		return nil, nil, validationf("%v", err)
	}
	end, err := model.ParseTimeOfDay(input.EndTime)
	if err != nil {
		return nil, nil, validationf("%v", err)
	}
	if end <= start {
		return nil, nil, validationf("end time %s must be after start time %s", end, start)
	}

	req := &model.LessonRequest{
		ID:                 uuid.NewString(),
		StudentID:          actor.UserID,
		CFIID:              input.CFIID,
		AircraftID:         input.AircraftID,
		RequestedDate:      input.Date,
		RequestedStartTime: start,
		RequestedEndTime:   end,
		Status:             model.LessonStatusPending,
		StudentMessage:     strings.TrimSpace(input.Message),
	}
	ticket := &model.LessonTicket{
		ID:              uuid.NewString(),
		TicketNumber:    model.NewTicketNumber(time.Now()),
		LessonRequestID: req.ID,
		CFIID:           input.CFIID,
		Status:          model.TicketStatusPending,
	}

	if err := s.requests.CreateWithTicket(ctx, req, ticket); err != nil {
		return nil, nil, err
	}

	monitoring.LessonRequestsCreated.Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindLessonRequested,
		LessonRequestID: req.ID,
		TicketID:        ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		ActorID:         actor.UserID,
		Status:          string(req.Status),
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Lesson request created",
		zap.String("request_id", req.ID),
		zap.String("student_id", req.StudentID),
		zap.String("cfi_id", req.CFIID),
		zap.String("aircraft_id", req.AircraftID),
		zap.String("date", req.RequestedDate),
		zap.String("start_time", req.RequestedStartTime),
	)
	return req, ticket, nil
}

// Approve lets the assigned CFI confirm a request directly.
func (s *LessonService) Approve(ctx context.Context, actor model.Actor, requestID string) error {
	req, err := s.requireCFI(ctx, actor, requestID)
	if err != nil {
		return err
	}

	if err := s.requests.Approve(ctx, requestID, "Request approved."); err != nil {
		return err
	}

	monitoring.LessonTransitions.WithLabelValues(string(model.LessonStatusAccepted)).Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindLessonAccepted,
		LessonRequestID: requestID,
		ActorID:         actor.UserID,
		Status:          string(model.LessonStatusAccepted),
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Lesson request approved",
		zap.String("request_id", requestID),
		zap.String("cfi_id", actor.UserID),
		zap.String("student_id", req.StudentID),
	)
	return nil
}

// Reject lets the assigned CFI decline a request.
func (s *LessonService) Reject(ctx context.Context, actor model.Actor, requestID, message string) error {
	if _, err := s.requireCFI(ctx, actor, requestID); err != nil {
		return err
	}

	if err := s.requests.Reject(ctx, requestID, strings.TrimSpace(message)); err != nil {
		return err
	}

	monitoring.LessonTransitions.WithLabelValues(string(model.LessonStatusRejected)).Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindLessonRejected,
		LessonRequestID: requestID,
		ActorID:         actor.UserID,
		Status:          string(model.LessonStatusRejected),
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Lesson request rejected",
		zap.String("request_id", requestID),
		zap.String("cfi_id", actor.UserID),
	)
	return nil
}

// ProposeModification records a CFI counter-proposal and hands the
// request to the student for review. The explanation message is
// mandatory; without it nothing is written.
func (s *LessonService) ProposeModification(ctx context.Context, actor model.Actor, requestID string, mod model.Modification, cfiMessage string) error {
	cfiMessage = strings.TrimSpace(cfiMessage)
	if cfiMessage == "" {
		return validationf("a message explaining the proposed change is required")
	}
	if mod.IsEmpty() {
		return validationf("the proposal must change at least one field")
	}
	if mod.Date != nil {
		if _, err := model.ParseDate(*mod.Date); err != nil {
			return validationf("%v", err)
		}
	}
	for _, t := range []*string{mod.StartTime, mod.EndTime} {
		if t == nil {
			continue
		}
		normalized, err := model.ParseTimeOfDay(*t)
		if err != nil {
			return validationf("%v", err)
		}
		*t = normalized
	}

	if _, err := s.requireCFI(ctx, actor, requestID); err != nil {
		return err
	}

	if err := s.requests.ProposeModification(ctx, requestID, mod, cfiMessage); err != nil {
		return err
	}

	monitoring.LessonTransitions.WithLabelValues(string(model.LessonStatusStudentReviewing)).Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindModificationProposed,
		LessonRequestID: requestID,
		ActorID:         actor.UserID,
		Status:          string(model.LessonStatusStudentReviewing),
		Message:         cfiMessage,
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Modification proposed",
		zap.String("request_id", requestID),
		zap.String("cfi_id", actor.UserID),
	)
	return nil
}

// ReviewModification settles a counter-proposal on behalf of the owning
// student. Denial requires a non-empty reason; without one the request
// stays in student_reviewing.
func (s *LessonService) ReviewModification(ctx context.Context, actor model.Actor, requestID string, accept bool, studentMessage string) error {
	if !actor.IsStudent() {
		return ErrForbidden
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return repository.ErrNotFound
	}
	if !req.IsOwnedBy(actor.UserID) {
		return ErrForbidden
	}

	studentMessage = strings.TrimSpace(studentMessage)
	if !accept && studentMessage == "" {
		return validationf("a reason is required when denying a proposed change")
	}

	if err := s.requests.ResolveReview(ctx, requestID, accept, studentMessage); err != nil {
		return err
	}

	target := model.LessonStatusDenied
	kind := notify.KindLessonDenied
	if accept {
		target = model.LessonStatusAccepted
		kind = notify.KindLessonAccepted
	}
	monitoring.LessonTransitions.WithLabelValues(string(target)).Inc()
	s.publish(ctx, notify.Event{
		Kind:            kind,
		LessonRequestID: requestID,
		ActorID:         actor.UserID,
		Status:          string(target),
		Message:         studentMessage,
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Modification reviewed",
		zap.String("request_id", requestID),
		zap.String("student_id", actor.UserID),
		zap.Bool("accepted", accept),
	)
	return nil
}

// AssignResources binds a CFI and/or aircraft to a pending request.
// Administrators and instructors only. The aircraft slot reservation is
// atomic with the status change; losing the slot race fails the whole
// assignment.
func (s *LessonService) AssignResources(ctx context.Context, actor model.Actor, requestID string, cfiID, aircraftID *string) error {
	if !actor.IsAdministrator() && !actor.IsInstructor() {
		return ErrForbidden
	}
	if emptyPtr(cfiID) && emptyPtr(aircraftID) {
		return validationf("at least one of cfi_id or aircraft_id is required")
	}
	if emptyPtr(cfiID) {
		cfiID = nil
	}
	if emptyPtr(aircraftID) {
		aircraftID = nil
	}

	err := s.requests.AssignResources(ctx, requestID, cfiID, aircraftID)
	if errors.Is(err, repository.ErrSlotUnavailable) {
		monitoring.SlotConflicts.Inc()
		return err
	}
	if err != nil {
		return err
	}

	monitoring.LessonTransitions.WithLabelValues(string(model.LessonStatusAssigned)).Inc()
	s.publish(ctx, notify.Event{
		Kind:            notify.KindLessonAssigned,
		LessonRequestID: requestID,
		ActorID:         actor.UserID,
		Status:          string(model.LessonStatusAssigned),
		OccurredAt:      time.Now().UTC(),
	})
	s.logger.Info("Resources assigned",
		zap.String("request_id", requestID),
		zap.String("actor_id", actor.UserID),
	)
	return nil
}

// GetRequest returns a request the actor is allowed to see: its student,
// its CFI, or any administrator.
func (s *LessonService) GetRequest(ctx context.Context, actor model.Actor, requestID string) (*model.LessonRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, repository.ErrNotFound
	}
	switch actor.Role {
	case model.RoleAdministrator:
	case model.RoleStudent:
		if !req.IsOwnedBy(actor.UserID) {
			return nil, ErrForbidden
		}
	case model.RoleInstructor:
		if req.AssignedCFI() != actor.UserID {
			return nil, ErrForbidden
		}
	}
	return req, nil
}

// ListStudentRequests returns a student's requests, newest first.
// Students see only their own; administrators may name any student.
func (s *LessonService) ListStudentRequests(ctx context.Context, actor model.Actor, studentID string) ([]*model.LessonRequest, error) {
	switch actor.Role {
	case model.RoleStudent:
		studentID = actor.UserID
	case model.RoleAdministrator:
		if studentID == "" {
			return nil, validationf("student_id is required")
		}
	default:
		return nil, ErrForbidden
	}
	return s.requests.ListByStudent(ctx, studentID)
}

// requireCFI loads a request and checks the actor is its assigned CFI.
func (s *LessonService) requireCFI(ctx context.Context, actor model.Actor, requestID string) (*model.LessonRequest, error) {
	if !actor.IsInstructor() {
		return nil, ErrForbidden
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, repository.ErrNotFound
	}
	if req.AssignedCFI() != actor.UserID {
		return nil, ErrForbidden
	}
	return req, nil
}

// publish sends an event to the configured sinks. Delivery is
// best-effort; sinks log their own failures.
func (s *LessonService) publish(ctx context.Context, event notify.Event) {
	_ = s.notifier.Publish(ctx, event)
}

func emptyPtr(s *string) bool {
	return s == nil || *s == ""
}
