/*
handlers.go - HTTP API handlers for the solution configurator

PURPOSE:
  Exposes the costing engine and the catalog store via REST API. Handles
  HTTP request/response and JSON serialization, and delegates to
  costing.Engine for traversal, aggregation and the guarded mutations.

ENDPOINTS:
  Costing:
    GET    /api/staffing/offering/{offeringID}       Staffing rows of an offering
    GET    /api/offerings/{offeringID}/cost-summary  Hours, cost and sale price
    GET    /api/totalHoursAndPrices/{offeringID}     Alias of cost-summary
    PUT    /api/wbs-staffing                         Assign hours (upsert)
    POST   /api/pricing                              Create a rate card

  Catalog (catalog_handlers.go, staffing_handlers.go):
    /api/offerings, /api/activities, /api/wbs, /api/staffing, /api/pricing

  Scenarios (scenarios.go):
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario
    POST   /api/scenarios/reset        Empty the database

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: catalog CRUD that needs no cross-row guarantees
  - Engine: every operation with a costing or uniqueness rule

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (second rate card, natural key collision)
  - 500: Internal errors, logged with the request id

SECURITY:
  Reads require an authenticated caller, writes the admin role. See
  server.go for the route groups and package auth for the tokens.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/warp/solution-configurator/auth"
	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/costing"
	"github.com/warp/solution-configurator/logger"
	"github.com/warp/solution-configurator/store/sqlstore"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlstore.Store
	Engine *costing.Engine
	log    *logger.Logger

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler. log may be nil.
func NewHandler(store *sqlstore.Store, engine *costing.Engine, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Store:  store,
		Engine: engine,
		log:    log.With("component", "api"),
	}
}

// =============================================================================
// COSTING HANDLERS
// =============================================================================

// GetOfferingStaffing returns every (activity, node, role) path of an offering.
func (h *Handler) GetOfferingStaffing(w http.ResponseWriter, r *http.Request) {
	id := catalog.OfferingID(chi.URLParam(r, "offeringID"))

	rows, err := h.Engine.ResolveOfferingStaffing(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to resolve staffing", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffingRowDTOs(rows))
}

// GetCostSummary returns the total hours, cost and sale price of an offering.
// An offering without staffing yields zero totals, not 404.
func (h *Handler) GetCostSummary(w http.ResponseWriter, r *http.Request) {
	id := catalog.OfferingID(chi.URLParam(r, "offeringID"))

	summary, err := h.Engine.AggregateOfferingCost(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to aggregate offering cost", err)
		return
	}
	writeJSON(w, http.StatusOK, ToCostSummaryDTO(summary))
}

// AssignStaffing sets the hours of a staffing role on a WBS node.
func (h *Handler) AssignStaffing(w http.ResponseWriter, r *http.Request) {
	var req AssignStaffingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	a, err := h.Engine.AssignStaffingToNode(r.Context(),
		catalog.NodeID(req.WBSID),
		catalog.StaffingRoleID(req.StaffingID),
		catalog.HoursFromPtr(req.Hours),
	)
	if err != nil {
		h.writeDomainError(w, r, "Failed to assign staffing", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentAckDTO(a))
}

// CreatePricing creates the rate card of a staffing role. A role has at
// most one rate card; a second create is 409.
func (h *Handler) CreatePricing(w http.ResponseWriter, r *http.Request) {
	var req CreatePricingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rc, err := h.Engine.CreateRateCard(r.Context(), catalog.StaffingRoleID(req.StaffingID), req.Cost, req.SalePrice)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create rate card", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateCardDTO(rc))
}

// =============================================================================
// IDENTITY
// =============================================================================

// GetIdentity returns the caller as seen by the auth middleware.
func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}
	writeJSON(w, http.StatusOK, IdentityDTO{Subject: id.Subject, Name: id.Name, Roles: id.Roles})
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "driver": h.Store.Driver()})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps catalog errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case catalog.IsValidation(err):
		return http.StatusBadRequest
	case catalog.IsNotFound(err):
		return http.StatusNotFound
	case catalog.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with its mapped status. Internal errors are
// logged and their details withheld from the client.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(message,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeError(w, status, message, nil)
		return
	}
	writeError(w, status, message, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}

// pathID reads a URL parameter and validates it as an identifier.
func pathID(r *http.Request, param, field string) (string, error) {
	return catalog.ValidateID(field, chi.URLParam(r, param))
}
