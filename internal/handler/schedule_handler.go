package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aviary-labs/flightdesk/internal/middleware"
	"github.com/aviary-labs/flightdesk/internal/model"
)

// ScheduleOps is the slice of the schedule service the handler needs.
type ScheduleOps interface {
	InitializeSchedule(ctx context.Context, actor model.Actor, entityType model.EntityType, entityID, startDate string, numDays, startHour, endHour int) (int64, error)
	ResolveAvailability(ctx context.Context, entityType model.EntityType, date, startTime string) ([]model.EntityRef, error)
	GetEntitySchedule(ctx context.Context, entityType model.EntityType, entityID, fromDate, toDate string) ([]model.ScheduleSlot, error)
}

type ScheduleHandler struct {
	schedules ScheduleOps
}

func NewScheduleHandler(schedules ScheduleOps) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

type initializeScheduleRequest struct {
	EntityType string `json:"entity_type" validate:"required,oneof=aircraft cfi student"`
	EntityID   string `json:"entity_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	NumDays    int    `json:"num_days" validate:"required,min=1,max=90"`
	StartHour  int    `json:"start_hour" validate:"min=0,max=23"`
	EndHour    int    `json:"end_hour" validate:"required,min=1,max=24"`
}

// Initialize handles POST /v1/admin/schedules.
func (h *ScheduleHandler) Initialize(c echo.Context) error {
	var req initializeScheduleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	entityType, err := model.ParseEntityType(req.EntityType)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.schedules.InitializeSchedule(
		c.Request().Context(),
		middleware.ActorFrom(c),
		entityType,
		req.EntityID,
		req.StartDate,
		req.NumDays,
		req.StartHour,
		req.EndHour,
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"slots_created": created})
}

// Availability handles GET /v1/availability.
func (h *ScheduleHandler) Availability(c echo.Context) error {
	entityType, err := model.ParseEntityType(c.QueryParam("entity_type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date := c.QueryParam("date")
	startTime := c.QueryParam("start_time")
	if date == "" || startTime == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date and start_time are required")
	}

	free, err := h.schedules.ResolveAvailability(c.Request().Context(), entityType, date, startTime)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": free})
}

// EntitySchedule handles GET /v1/schedules/:entity_type/:entity_id.
func (h *ScheduleHandler) EntitySchedule(c echo.Context) error {
	entityType, err := model.ParseEntityType(c.Param("entity_type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" || to == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to are required")
	}

	slots, err := h.schedules.GetEntitySchedule(c.Request().Context(), entityType, c.Param("entity_id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}
