package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"trpg-scheduler/internal/config"
	"trpg-scheduler/internal/transport/httpserver/handler"
	authmw "trpg-scheduler/internal/transport/httpserver/middleware"
	"trpg-scheduler/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS([]string{"http://localhost:5173"}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		auth := authmw.NewIdentityAuth(cfg.Auth, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/groups", handlers.ListGroups)
			r.Post("/groups", handlers.CreateGroup)
			r.Get("/groups/{group_id}", handlers.GetGroup)
			r.Patch("/groups/{group_id}", handlers.UpdateGroup)
			r.Delete("/groups/{group_id}", handlers.DeleteGroup)

			r.Get("/groups/{group_id}/members", handlers.ListMembers)
			r.Post("/groups/{group_id}/members", handlers.AddMember)
			r.Delete("/groups/{group_id}/members/{user_id}", handlers.RemoveMember)
			r.Post("/groups/{group_id}/leave", handlers.LeaveGroup)

			r.Get("/groups/{group_id}/scenarios", handlers.ListScenarios)
			r.Post("/groups/{group_id}/scenarios", handlers.CreateScenario)
			r.Delete("/scenarios/{scenario_id}", handlers.DeleteScenario)

			r.Get("/groups/{group_id}/pending-event", handlers.GetPendingEvent)
			r.Post("/groups/{group_id}/pending-event", handlers.CreatePendingEvent)
			r.Post("/pending-events/{event_id}/approve", handlers.ApprovePendingEvent)
			r.Get("/pending-events/{event_id}/status", handlers.PendingEventStatus)
			r.Post("/pending-events/{event_id}/promote", handlers.PromotePendingEvent)
			r.Delete("/pending-events/{event_id}", handlers.CancelPendingEvent)

			r.Get("/groups/{group_id}/confirmed-event", handlers.GetConfirmedEvent)
			r.Post("/confirmed-events/{event_id}/publish", handlers.PublishConfirmedEvent)
			r.Delete("/confirmed-events/{event_id}", handlers.DeleteConfirmedEvent)

			r.Post("/calendar/sync", handlers.SyncCalendar)
			r.Get("/calendar/events", handlers.ListCalendarEvents)
			r.Patch("/calendar/events/{event_id}/included", handlers.SetCalendarEventIncluded)
			r.Delete("/calendar/events/{event_id}", handlers.SoftDeleteCalendarEvent)
			r.Post("/calendar/events/{event_id}/restore", handlers.RestoreCalendarEvent)

			r.Get("/availabilities", handlers.ListAvailabilities)
			r.Post("/availabilities", handlers.CreateAvailability)
			r.Delete("/availabilities/{availability_id}", handlers.DeleteAvailability)
			r.Get("/availabilities/busy", handlers.BusyIntervals)
			r.Get("/availabilities/free", handlers.FreeIntervals)
			r.Get("/groups/{group_id}/free-slots", handlers.GroupFreeIntervals)
		})
	})

	return r
}
