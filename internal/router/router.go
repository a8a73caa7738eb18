// Package router wires the HTTP surface onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aviary-labs/flightdesk/internal/handler"
	"github.com/aviary-labs/flightdesk/internal/middleware"
	"github.com/aviary-labs/flightdesk/internal/model"
)

// Register mounts every route. Authenticated routes live under /v1 and
// are grouped per role so role checks happen once, in middleware,
// instead of inside handlers.
func Register(e *echo.Echo, schedules *handler.ScheduleHandler, lessons *handler.LessonHandler, instructor *handler.InstructorHandler, jwtSecret string) {
	e.Use(echomw.Recover())

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.Use(middleware.Auth(jwtSecret))

	// Any authenticated role may check availability or browse a schedule.
	v1.GET("/availability", schedules.Availability)
	v1.GET("/schedules/:entity_type/:entity_id", schedules.EntitySchedule)

	students := v1.Group("/lessons", middleware.RequireRole(model.RoleStudent, model.RoleAdministrator))
	students.POST("", lessons.Create)
	students.GET("", lessons.List)
	students.GET("/:id", lessons.Get)
	students.POST("/:id/review", lessons.Review)

	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdministrator))
	admin.POST("/schedules", schedules.Initialize)

	// Assignment is shared between administrators and instructors.
	assign := v1.Group("/admin/lessons", middleware.RequireRole(model.RoleAdministrator, model.RoleInstructor))
	assign.POST("/:id/assign", lessons.Assign)

	cfi := v1.Group("/instructor", middleware.RequireRole(model.RoleInstructor, model.RoleAdministrator))
	cfi.POST("/lessons/:id/approve", instructor.Approve)
	cfi.POST("/lessons/:id/reject", instructor.Reject)
	cfi.POST("/lessons/:id/modification", instructor.ProposeModification)
	cfi.GET("/tickets", instructor.ListTickets)
	cfi.POST("/tickets/:id/advance", instructor.AdvanceTicket)
	cfi.POST("/tickets/:id/complete", instructor.CompleteFlight)
}
