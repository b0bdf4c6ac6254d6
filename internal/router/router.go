package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskdeck/backend/api/handler"
)

type Handlers struct {
	WorkItem *apiHandler.WorkItemHandler
	Reminder *apiHandler.ReminderHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Work items
	r.POST("/api/v1/workitems", authMiddleware(handlers.WorkItem.Create))
	r.GET("/api/v1/workitems/{id}", authMiddleware(handlers.WorkItem.Get))
	r.PATCH("/api/v1/workitems/{id}", authMiddleware(handlers.WorkItem.Update))
	r.POST("/api/v1/workitems/{id}/state", authMiddleware(handlers.WorkItem.ChangeState))
	r.POST("/api/v1/workitems/{id}/tags", authMiddleware(handlers.WorkItem.AddTag))
	r.DELETE("/api/v1/workitems/{id}/tags/{tag}", authMiddleware(handlers.WorkItem.RemoveTag))

	// Reminders
	r.POST("/api/v1/workitems/{id}/reminders", authMiddleware(handlers.Reminder.Schedule))
	r.GET("/api/v1/workitems/{id}/reminders", authMiddleware(handlers.Reminder.List))
	r.GET("/api/v1/reminders/{id}", authMiddleware(handlers.Reminder.Get))
	r.POST("/api/v1/reminders/{id}/reschedule", authMiddleware(handlers.Reminder.Reschedule))
	r.POST("/api/v1/reminders/{id}/cancel", authMiddleware(handlers.Reminder.Cancel))
	r.POST("/api/v1/reminders/{id}/trigger", authMiddleware(handlers.Reminder.TriggerNow))

	return r
}
