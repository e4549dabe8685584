/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. RealIP:     Client address behind proxies
  3. Tracing:    OpenTelemetry server span per request
  4. Logger:     zap request log (method, route, status, duration)
  5. Recoverer:  Panic recovery (500 instead of crash)
  6. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/healthz           Public liveness check
  /api/* (GET)           Authenticated callers
  /api/* (writes)        Admin role required

SEE ALSO:
  - handlers.go: Handler implementations
  - auth/middleware.go: RequireAuth, RequireAdmin
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"

	"github.com/warp/solution-configurator/auth"
)

// RouterConfig carries the router's collaborators besides the handler.
type RouterConfig struct {
	// Auth guards every route but the health check. Required.
	Auth           *auth.Middleware
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tracing(otel.Tracer("github.com/warp/solution-configurator/api")))
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Traceparent"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.RequireAuth)

			r.Get("/me", h.GetIdentity)

			// Costing
			r.Get("/staffing/offering/{offeringID}", h.GetOfferingStaffing)
			r.Get("/offerings/{offeringID}/cost-summary", h.GetCostSummary)
			r.Get("/totalHoursAndPrices/{offeringID}", h.GetCostSummary)

			// Catalog reads
			r.Get("/offerings", h.ListOfferings)
			r.Get("/offerings/{offeringID}", h.GetOffering)
			r.Get("/offerings/{offeringID}/activities", h.ListOfferingActivities)
			r.Get("/activities", h.ListActivities)
			r.Get("/activities/{activityID}", h.GetActivity)
			r.Get("/activities/{activityID}/wbs", h.ListActivityNodes)
			r.Get("/wbs", h.ListNodes)
			r.Get("/wbs/{wbsID}", h.GetNode)
			r.Get("/wbs/{wbsID}/staffing", h.ListNodeAssignments)
			r.Get("/staffing", h.ListStaffingRoles)
			r.Get("/staffing/search", h.SearchStaffingRole)
			r.Get("/staffing/{staffingID}", h.GetStaffingRole)
			r.Get("/pricing", h.ListRateCards)
			r.Get("/pricing/{pricingID}", h.GetRateCard)
			r.Get("/pricing/staffing/{staffingID}", h.GetRateCardByStaffing)

			// Scenario reads
			r.Get("/scenarios", h.ListScenarios)
			r.Get("/scenarios/current", h.GetCurrentScenario)

			// Writes
			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.RequireAdmin)

				r.Put("/wbs-staffing", h.AssignStaffing)
				r.Post("/wbs-staffing", h.AssignStaffing)
				r.Post("/pricing", h.CreatePricing)
				r.Patch("/pricing/{pricingID}", h.UpdateRateCard)
				r.Delete("/pricing/{pricingID}", h.DeleteRateCard)

				r.Post("/offerings", h.CreateOffering)
				r.Delete("/offerings/{offeringID}", h.DeleteOffering)
				r.Put("/offerings/{offeringID}/activities/{activityID}", h.LinkActivity)
				r.Delete("/offerings/{offeringID}/activities/{activityID}", h.UnlinkActivity)

				r.Post("/activities", h.CreateActivity)
				r.Delete("/activities/{activityID}", h.DeleteActivity)
				r.Put("/activities/{activityID}/wbs/{wbsID}", h.LinkNode)
				r.Delete("/activities/{activityID}/wbs/{wbsID}", h.UnlinkNode)

				r.Post("/wbs", h.CreateNode)
				r.Delete("/wbs/{wbsID}", h.DeleteNode)
				r.Patch("/wbs/{wbsID}/staffing/{staffingID}", h.UpdateAssignmentHours)
				r.Delete("/wbs/{wbsID}/staffing/{staffingID}", h.DeleteAssignment)

				r.Post("/staffing", h.CreateStaffingRole)
				r.Put("/staffing/{staffingID}", h.UpdateStaffingRole)
				r.Delete("/staffing/{staffingID}", h.DeleteStaffingRole)

				r.Post("/scenarios/load", h.LoadScenario)
				r.Post("/scenarios/reset", h.ResetDatabase)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}
