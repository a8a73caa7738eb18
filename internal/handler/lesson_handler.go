package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aviary-labs/flightdesk/internal/middleware"
	"github.com/aviary-labs/flightdesk/internal/model"
	"github.com/aviary-labs/flightdesk/internal/service"
)

// LessonOps is the slice of the lesson service the handler needs.
type LessonOps interface {
	CreateRequest(ctx context.Context, actor model.Actor, input service.CreateLessonInput) (*model.LessonRequest, *model.LessonTicket, error)
	GetRequest(ctx context.Context, actor model.Actor, requestID string) (*model.LessonRequest, error)
	ListStudentRequests(ctx context.Context, actor model.Actor, studentID string) ([]*model.LessonRequest, error)
	ReviewModification(ctx context.Context, actor model.Actor, requestID string, accept bool, studentMessage string) error
	AssignResources(ctx context.Context, actor model.Actor, requestID string, cfiID, aircraftID *string) error
}

type LessonHandler struct {
	lessons LessonOps
}

func NewLessonHandler(lessons LessonOps) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

type createLessonRequest struct {
	CFIID      string `json:"cfi_id" validate:"required"`
	AircraftID string `json:"aircraft_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	StartTime  string `json:"start_time" validate:"required"`
	EndTime    string `json:"end_time" validate:"required"`
	Message    string `json:"message"`
}

// Create handles POST /v1/lessons.
func (h *LessonHandler) Create(c echo.Context) error {
	var req createLessonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	request, ticket, err := h.lessons.CreateRequest(c.Request().Context(), middleware.ActorFrom(c), service.CreateLessonInput{
		CFIID:      req.CFIID,
		AircraftID: req.AircraftID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Message:    req.Message,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"request": request, "ticket": ticket})
}

// Get handles GET /v1/lessons/:id.
func (h *LessonHandler) Get(c echo.Context) error {
	request, err := h.lessons.GetRequest(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"request": request})
}

// List handles GET /v1/lessons. Students get their own requests;
// administrators pass ?student_id=.
func (h *LessonHandler) List(c echo.Context) error {
	requests, err := h.lessons.ListStudentRequests(c.Request().Context(), middleware.ActorFrom(c), c.QueryParam("student_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept deny"`
	Message  string `json:"message"`
}

// Review handles POST /v1/lessons/:id/review — the student settles a
// CFI counter-proposal.
func (h *LessonHandler) Review(c echo.Context) error {
	var req reviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.lessons.ReviewModification(
		c.Request().Context(),
		middleware.ActorFrom(c),
		c.Param("id"),
		req.Decision == "accept",
		req.Message,
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

type assignRequest struct {
	CFIID      *string `json:"cfi_id"`
	AircraftID *string `json:"aircraft_id"`
}

// Assign handles POST /v1/admin/lessons/:id/assign.
func (h *LessonHandler) Assign(c echo.Context) error {
	var req assignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.lessons.AssignResources(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req.CFIID, req.AircraftID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "assigned"})
}
