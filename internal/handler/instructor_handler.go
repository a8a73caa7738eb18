package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aviary-labs/flightdesk/internal/middleware"
	"github.com/aviary-labs/flightdesk/internal/model"
)

// InstructorLessonOps is the slice of the lesson service used by the
// instructor endpoints.
type InstructorLessonOps interface {
	Approve(ctx context.Context, actor model.Actor, requestID string) error
	Reject(ctx context.Context, actor model.Actor, requestID, message string) error
	ProposeModification(ctx context.Context, actor model.Actor, requestID string, mod model.Modification, cfiMessage string) error
}

// TicketOps is the slice of the ticket service the handler needs.
type TicketOps interface {
	ListTickets(ctx context.Context, actor model.Actor, cfiID string, status *model.TicketStatus) ([]*model.LessonTicket, error)
	AdvanceTicket(ctx context.Context, actor model.Actor, ticketID string, target model.TicketStatus) error
	CompleteFlight(ctx context.Context, actor model.Actor, ticketID string, hobbsIn, hobbsOut decimal.Decimal, notes string) error
}

type InstructorHandler struct {
	lessons InstructorLessonOps
	tickets TicketOps
}

func NewInstructorHandler(lessons InstructorLessonOps, tickets TicketOps) *InstructorHandler {
	return &InstructorHandler{lessons: lessons, tickets: tickets}
}

// Approve handles POST /v1/instructor/lessons/:id/approve.
func (h *InstructorHandler) Approve(c echo.Context) error {
	if err := h.lessons.Approve(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "accepted"})
}

type rejectRequest struct {
	Message string `json:"message"`
}

// Reject handles POST /v1/instructor/lessons/:id/reject.
func (h *InstructorHandler) Reject(c echo.Context) error {
	var req rejectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.lessons.Reject(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req.Message); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "rejected"})
}

type modificationRequest struct {
	Date       *string `json:"date"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
	CFIID      *string `json:"cfi_id"`
	AircraftID *string `json:"aircraft_id"`
	Message    string  `json:"message" validate:"required"`
}

// ProposeModification handles POST /v1/instructor/lessons/:id/modification.
func (h *InstructorHandler) ProposeModification(c echo.Context) error {
	var req modificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	mod := model.Modification{
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		CFIID:      req.CFIID,
		AircraftID: req.AircraftID,
	}
	err := h.lessons.ProposeModification(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), mod, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "student_reviewing"})
}

// ListTickets handles GET /v1/instructor/tickets.
func (h *InstructorHandler) ListTickets(c echo.Context) error {
	var status *model.TicketStatus
	if raw := c.QueryParam("status"); raw != "" {
		s := model.TicketStatus(raw)
		status = &s
	}

	tickets, err := h.tickets.ListTickets(c.Request().Context(), middleware.ActorFrom(c), c.QueryParam("cfi_id"), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

type advanceTicketRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdvanceTicket handles POST /v1/instructor/tickets/:id/advance.
func (h *InstructorHandler) AdvanceTicket(c echo.Context) error {
	var req advanceTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	err := h.tickets.AdvanceTicket(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), model.TicketStatus(req.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": req.Status})
}

type completeFlightRequest struct {
	HobbsIn  decimal.Decimal `json:"hobbs_in" validate:"required"`
	HobbsOut decimal.Decimal `json:"hobbs_out" validate:"required"`
	Notes    string          `json:"notes"`
}

// CompleteFlight handles POST /v1/instructor/tickets/:id/complete.
func (h *InstructorHandler) CompleteFlight(c echo.Context) error {
	var req completeFlightRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	err := h.tickets.CompleteFlight(
		c.Request().Context(),
		middleware.ActorFrom(c),
		c.Param("id"),
		req.HobbsIn,
		req.HobbsOut,
		req.Notes,
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "completed"})
}
