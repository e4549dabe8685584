package api

import (
	"net/http"
	"strconv"

	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/store/sqlstore"
)

// =============================================================================
// STAFFING ROLE HANDLERS
// =============================================================================

// ListStaffingRoles returns all staffing roles.
func (h *Handler) ListStaffingRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.ListStaffingRoles(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list staffing roles", err)
		return
	}

	dtos := make([]StaffingRoleDTO, len(roles))
	for i, sr := range roles {
		dtos[i] = toStaffingRoleDTO(sr)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStaffingRole returns a single staffing role.
func (h *Handler) GetStaffingRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "staffingID", "staffing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing id", err)
		return
	}

	sr, err := h.Store.GetStaffingRole(r.Context(), catalog.StaffingRoleID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get staffing role", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffingRoleDTO(*sr))
}

// SearchStaffingRole looks a role up by ?country=&role=&band=.
func (h *Handler) SearchStaffingRole(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	band, err := strconv.ParseInt(q.Get("band"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid band", catalog.Invalid("band", "must be an integer"))
		return
	}
	key, err := catalog.NormalizeStaffingRole(q.Get("country"), q.Get("role"), band)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing role", err)
		return
	}

	sr, err := h.Store.FindStaffingRole(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, "Failed to find staffing role", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffingRoleDTO(*sr))
}

// CreateStaffingRole returns the role with the given natural key, creating
// it when absent: 201 when created, 200 when reused.
func (h *Handler) CreateStaffingRole(w http.ResponseWriter, r *http.Request) {
	var req StaffingRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sr, created, err := h.Engine.CreateStaffingRole(r.Context(), req.Country, req.Role, req.Band)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create staffing role", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toStaffingRoleDTO(sr))
}

// UpdateStaffingRole changes the natural key of a role.
func (h *Handler) UpdateStaffingRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "staffingID", "staffing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing id", err)
		return
	}
	var req StaffingRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key, err := catalog.NormalizeStaffingRole(req.Country, req.Role, req.Band)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing role", err)
		return
	}

	sr := catalog.StaffingRole{
		ID:      catalog.StaffingRoleID(id),
		Country: key.Country,
		Role:    key.Role,
		Band:    key.Band,
	}
	if err := h.Store.UpdateStaffingRole(r.Context(), sr); err != nil {
		h.writeDomainError(w, r, "Failed to update staffing role", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffingRoleDTO(sr))
}

// DeleteStaffingRole removes a role with its rate card and assignments.
func (h *Handler) DeleteStaffingRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "staffingID", "staffing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing id", err)
		return
	}
	if err := h.Store.DeleteStaffingRole(r.Context(), catalog.StaffingRoleID(id)); err != nil {
		h.writeDomainError(w, r, "Failed to delete staffing role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RATE CARD HANDLERS
// =============================================================================

// ListRateCards returns all rate cards with their role attributes.
func (h *Handler) ListRateCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Store.ListRateCards(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list rate cards", err)
		return
	}

	dtos := make([]RateCardDTO, len(cards))
	for i, p := range cards {
		dtos[i] = toPricedRoleDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRateCard returns a rate card by its id.
func (h *Handler) GetRateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "pricingID", "pricing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pricing id", err)
		return
	}

	p, err := h.Store.GetRateCard(r.Context(), catalog.RateCardID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get rate card", err)
		return
	}
	writeJSON(w, http.StatusOK, toPricedRoleDTO(*p))
}

// GetRateCardByStaffing returns the rate card of a staffing role.
func (h *Handler) GetRateCardByStaffing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "staffingID", "staffing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing id", err)
		return
	}

	p, err := h.Store.GetRateCardByStaffing(r.Context(), catalog.StaffingRoleID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get rate card", err)
		return
	}
	writeJSON(w, http.StatusOK, toPricedRoleDTO(*p))
}

// UpdateRateCard changes the prices present in the body.
func (h *Handler) UpdateRateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "pricingID", "pricing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pricing id", err)
		return
	}
	var req UpdatePricingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := catalog.ValidateAmount("cost", req.Cost.Value); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate card", err)
		return
	}
	if err := catalog.ValidateAmount("sale_price", req.SalePrice.Value); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate card", err)
		return
	}

	patch := sqlstore.RateCardPatch{Cost: req.Cost.patch(), SalePrice: req.SalePrice.patch()}
	p, err := h.Store.UpdateRateCard(r.Context(), catalog.RateCardID(id), patch)
	if err != nil {
		h.writeDomainError(w, r, "Failed to update rate card", err)
		return
	}
	writeJSON(w, http.StatusOK, toPricedRoleDTO(*p))
}

// DeleteRateCard removes a rate card. The role becomes unpriced.
func (h *Handler) DeleteRateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "pricingID", "pricing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pricing id", err)
		return
	}
	if err := h.Store.DeleteRateCard(r.Context(), catalog.RateCardID(id)); err != nil {
		h.writeDomainError(w, r, "Failed to delete rate card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// ListNodeAssignments returns the staffing of a WBS node.
func (h *Handler) ListNodeAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "wbsID", "wbs_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs id", err)
		return
	}

	views, err := h.Store.ListNodeAssignments(r.Context(), catalog.NodeID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list assignments", err)
		return
	}
	dtos := make([]AssignmentDTO, len(views))
	for i, v := range views {
		dtos[i] = toAssignmentDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateAssignmentHours changes the hours of an existing assignment. Unlike
// PUT /api/wbs-staffing it never creates one.
func (h *Handler) UpdateAssignmentHours(w http.ResponseWriter, r *http.Request) {
	nodeID, roleID, ok := assignmentKey(w, r)
	if !ok {
		return
	}
	var req UpdateHoursRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hours := catalog.HoursFromPtr(req.Hours)
	if err := catalog.ValidateHours(hours); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours", err)
		return
	}

	if err := h.Store.UpdateAssignmentHours(r.Context(), nodeID, roleID, hours); err != nil {
		h.writeDomainError(w, r, "Failed to update assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentAckDTO(catalog.StaffingAssignment{
		NodeID:         nodeID,
		StaffingRoleID: roleID,
		Hours:          hours,
	}))
}

// DeleteAssignment removes a role from a WBS node.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	nodeID, roleID, ok := assignmentKey(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAssignment(r.Context(), nodeID, roleID); err != nil {
		h.writeDomainError(w, r, "Failed to delete assignment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func assignmentKey(w http.ResponseWriter, r *http.Request) (catalog.NodeID, catalog.StaffingRoleID, bool) {
	nodeID, err := pathID(r, "wbsID", "wbs_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs id", err)
		return "", "", false
	}
	roleID, err := pathID(r, "staffingID", "staffing_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staffing id", err)
		return "", "", false
	}
	return catalog.NodeID(nodeID), catalog.StaffingRoleID(roleID), true
}
