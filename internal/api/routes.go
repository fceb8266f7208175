package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes mounts every endpoint on a fresh router.
func SetupRoutes(h *Handlers, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/persona", h.AnalyzePersona)
			r.Get("/journey", h.GetJourney)
			r.Get("/health-score", h.GetHealthScore)
			r.Put("/stage", h.UpdateStage)
			r.Get("/dashboard", h.GetDashboard)
		})

		r.Route("/portal", func(r chi.Router) {
			r.Post("/sessions", h.InitializeSession)
			r.Post("/events", h.TrackEvent)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/", h.CreateRule)
			r.Put("/{ruleID}", h.UpdateRule)
			r.Delete("/{ruleID}", h.DeleteRule)
		})

		r.Post("/automations/execute", h.ExecuteAutomations)
		r.Route("/events/{eventName}", func(r chi.Router) {
			r.Post("/trigger", h.TriggerEvent)
			r.Post("/schedule", h.ScheduleEvent)
		})

		r.Route("/communications", func(r chi.Router) {
			r.Post("/lifecycle", h.SendLifecycleMessage)
			r.Post("/notify", h.SendNotification)
		})

		r.Route("/campaigns/{campaignID}", func(r chi.Router) {
			r.Post("/start", h.StartCampaign)
			r.Put("/metrics", h.UpdateCampaignMetric)
			r.Get("/metrics", h.GetCampaignMetrics)
		})
	})

	return r
}
