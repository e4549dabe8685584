/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built catalogs that populate the database with realistic
	data for demos and API tests. Each scenario creates one offering with
	its activities, WBS nodes, staffing roles, rate cards and assignments.

AVAILABLE SCENARIOS:

	cloud-migration:  Shared WBS node under two activities, one unpriced role
	empty-offering:   Offering without activities (zero totals)
	null-hours:       Unspecified hours and a rate card without sale price

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create offering, activities and WBS nodes through the store
 3. Create staffing roles and rate cards through the costing engine
 4. Assign hours through the costing engine

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "cloud-migration"}

USAGE VIA CLI:

	configurator seed cloud-migration

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/costing"
	"github.com/warp/solution-configurator/store/sqlstore"
)

// ErrUnknownScenario is returned by LoadScenario for an unknown id.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "cloud-migration",
		Name:        "Cloud Migration",
		Description: "Three activities, a WBS node shared by two of them and a project manager without rate card",
	},
	{
		ID:          "empty-offering",
		Name:        "Empty Offering",
		Description: "An offering with no activities; its cost summary is all zeros",
	},
	{
		ID:          "null-hours",
		Name:        "Unspecified Hours",
		Description: "An assignment without hours and a rate card without sale price",
	},
}

// ListScenarios returns all available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, map[string]any{"scenario": nil})
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, map[string]any{"scenario": s})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenario": nil})
}

// LoadScenario resets the database and loads a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	offeringID, err := LoadScenario(r.Context(), h.Store, h.Engine, req.ScenarioID)
	if errors.Is(err, ErrUnknownScenario) {
		writeError(w, http.StatusBadRequest, "Unknown scenario", err)
		return
	}
	if err != nil {
		h.writeDomainError(w, r, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.log.Info("scenario loaded", "scenario", req.ScenarioID, "offering_id", offeringID)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "loaded",
		"scenario":    req.ScenarioID,
		"offering_id": string(offeringID),
	})
}

// ResetDatabase removes all catalog data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadScenario resets st and loads the scenario with the given id. It
// returns the id of the scenario's offering.
func LoadScenario(ctx context.Context, st *sqlstore.Store, engine *costing.Engine, id string) (catalog.OfferingID, error) {
	var load func(*seeder) catalog.OfferingID
	switch id {
	case "cloud-migration":
		load = loadCloudMigrationScenario
	case "empty-offering":
		load = loadEmptyOfferingScenario
	case "null-hours":
		load = loadNullHoursScenario
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	if err := st.Reset(ctx); err != nil {
		return "", err
	}
	s := &seeder{ctx: ctx, st: st, engine: engine}
	offeringID := load(s)
	if s.err != nil {
		return "", fmt.Errorf("loading scenario %s: %w", id, s.err)
	}
	return offeringID, nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadCloudMigrationScenario(s *seeder) catalog.OfferingID {
	off := s.offering("Cloud Migration", "Lift-and-shift of an on-premise estate")

	assess := s.activity(off, "Assessment", "discovery", seq(1))
	migrate := s.activity(off, "Migration", "delivery", seq(2))
	hypercare := s.activity(off, "Hypercare", "support", nil)

	discovery := s.node("Discovery workshops", assess)
	// Wave planning sits under both assessment and migration, so its
	// staffing is costed once per activity.
	planning := s.node("Wave planning", assess, migrate)
	cutover := s.node("Cutover", migrate)
	support := s.node("Hypercare support", hypercare)

	architect := s.role("US", "Solution Architect", 3)
	engineer := s.role("IN", "Cloud Engineer", 2)
	pm := s.role("DE", "Project Manager", 4)
	s.rate(architect, "120.00", "185.00")
	s.rate(engineer, "42.50", "68.00")

	s.assign(discovery, architect, catalog.HoursOf(24))
	s.assign(discovery, pm, catalog.HoursOf(8))
	s.assign(planning, architect, catalog.HoursOf(16))
	s.assign(planning, engineer, catalog.HoursOf(40))
	s.assign(cutover, engineer, catalog.HoursOf(80))
	s.assign(cutover, pm, catalog.HoursOf(12))
	s.assign(support, engineer, catalog.HoursOf(30))
	return off
}

func loadEmptyOfferingScenario(s *seeder) catalog.OfferingID {
	off := s.offering("Advisory Retainer", "Placeholder offering awaiting its activities")

	// Priced staffing exists in the catalog but is not reachable.
	advisor := s.role("GB", "Principal Advisor", 5)
	s.rate(advisor, "150.00", "240.00")
	return off
}

func loadNullHoursScenario(s *seeder) catalog.OfferingID {
	off := s.offering("Data Platform Pilot", "Eight-week pilot with open estimates")
	pilot := s.activity(off, "Pilot", "delivery", seq(1))
	ingestion := s.node("Ingestion", pilot)

	dataEngineer := s.role("GB", "Data Engineer", 2)
	scientist := s.role("GB", "Data Scientist", 3)
	s.rate(dataEngineer, "55.00", "")
	s.rate(scientist, "70.00", "110.00")

	s.assign(ingestion, dataEngineer, catalog.NullHours())
	s.assign(ingestion, scientist, catalog.HoursOf(20))
	return off
}

// =============================================================================
// SEEDER
// =============================================================================

// seeder builds a scenario. The first error sticks and turns every later
// call into a no-op.
type seeder struct {
	ctx    context.Context
	st     *sqlstore.Store
	engine *costing.Engine
	err    error
}

func (s *seeder) offering(name, description string) catalog.OfferingID {
	if s.err != nil {
		return ""
	}
	id := catalog.OfferingID(catalog.NewID())
	s.err = s.st.CreateOffering(s.ctx, catalog.Offering{ID: id, Name: name, Description: description})
	return id
}

func (s *seeder) activity(off catalog.OfferingID, name, category string, sequence *int64) catalog.ActivityID {
	if s.err != nil {
		return ""
	}
	id := catalog.ActivityID(catalog.NewID())
	if s.err = s.st.CreateActivity(s.ctx, catalog.Activity{ID: id, Name: name, Category: category}); s.err != nil {
		return ""
	}
	s.err = s.st.LinkActivity(s.ctx, catalog.OfferingActivity{
		OfferingID:  off,
		ActivityID:  id,
		Sequence:    sequence,
		IsMandatory: true,
	})
	return id
}

func (s *seeder) node(name string, activities ...catalog.ActivityID) catalog.NodeID {
	if s.err != nil {
		return ""
	}
	id := catalog.NodeID(catalog.NewID())
	if s.err = s.st.CreateNode(s.ctx, catalog.WorkBreakdownNode{ID: id, Name: name}); s.err != nil {
		return ""
	}
	for _, a := range activities {
		if s.err = s.st.LinkNode(s.ctx, catalog.ActivityNode{ActivityID: a, NodeID: id}); s.err != nil {
			return ""
		}
	}
	return id
}

func (s *seeder) role(country, role string, band int64) catalog.StaffingRoleID {
	if s.err != nil {
		return ""
	}
	sr, _, err := s.engine.CreateStaffingRole(s.ctx, country, role, band)
	s.err = err
	return sr.ID
}

// rate creates a rate card; an empty string leaves that price unknown.
func (s *seeder) rate(role catalog.StaffingRoleID, cost, salePrice string) {
	if s.err != nil {
		return
	}
	c, err := parseAmount(cost)
	if err != nil {
		s.err = err
		return
	}
	sp, err := parseAmount(salePrice)
	if err != nil {
		s.err = err
		return
	}
	_, s.err = s.engine.CreateRateCard(s.ctx, role, c, sp)
}

func (s *seeder) assign(node catalog.NodeID, role catalog.StaffingRoleID, hours catalog.Hours) {
	if s.err != nil {
		return
	}
	_, s.err = s.engine.AssignStaffingToNode(s.ctx, node, role, hours)
}

func parseAmount(v string) (decimal.NullDecimal, error) {
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func seq(n int64) *int64 {
	return &n
}
