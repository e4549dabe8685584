package api

import (
	"net/http"
	"time"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// OFFERING HANDLERS
// =============================================================================

// ListOfferings returns all offerings.
func (h *Handler) ListOfferings(w http.ResponseWriter, r *http.Request) {
	offerings, err := h.Store.ListOfferings(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list offerings", err)
		return
	}

	dtos := make([]OfferingDTO, len(offerings))
	for i, o := range offerings {
		dtos[i] = toOfferingDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOffering returns a single offering.
func (h *Handler) GetOffering(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "offeringID", "offering_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offering id", err)
		return
	}

	o, err := h.Store.GetOffering(r.Context(), catalog.OfferingID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get offering", err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferingDTO(*o))
}

// CreateOffering creates an offering without activities.
func (h *Handler) CreateOffering(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name, err := catalog.RequireName("name", req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offering", err)
		return
	}

	o := catalog.Offering{
		ID:          catalog.OfferingID(catalog.NewID()),
		Name:        name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.CreateOffering(r.Context(), o); err != nil {
		h.writeDomainError(w, r, "Failed to create offering", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferingDTO(o))
}

// DeleteOffering removes an offering. Its activities and nodes survive.
func (h *Handler) DeleteOffering(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "offeringID", "offering_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offering id", err)
		return
	}
	if err := h.Store.DeleteOffering(r.Context(), catalog.OfferingID(id)); err != nil {
		h.writeDomainError(w, r, "Failed to delete offering", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOfferingActivities returns the activities of an offering in sequence order.
func (h *Handler) ListOfferingActivities(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "offeringID", "offering_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offering id", err)
		return
	}

	linked, err := h.Store.ListOfferingActivities(r.Context(), catalog.OfferingID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list offering activities", err)
		return
	}
	dtos := make([]ActivityDTO, len(linked))
	for i, la := range linked {
		dtos[i] = toLinkedActivityDTO(la)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LinkActivity places an activity in an offering, or updates its placement.
func (h *Handler) LinkActivity(w http.ResponseWriter, r *http.Request) {
	offeringID, err := pathID(r, "offeringID", "offering_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offering id", err)
		return
	}
	activityID, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}

	var req LinkActivityRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	link := catalog.OfferingActivity{
		OfferingID:  catalog.OfferingID(offeringID),
		ActivityID:  catalog.ActivityID(activityID),
		Sequence:    req.Sequence,
		IsMandatory: req.IsMandatory == nil || *req.IsMandatory,
	}
	if err := h.Store.LinkActivity(r.Context(), link); err != nil {
		h.writeDomainError(w, r, "Failed to link activity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkActivity removes an activity from an offering.
func (h *Handler) UnlinkActivity(w http.ResponseWriter, r *http.Request) {
	offeringID, err := pathID(r, "offeringID", "offering_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offering id", err)
		return
	}
	activityID, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}
	if err := h.Store.UnlinkActivity(r.Context(), catalog.OfferingID(offeringID), catalog.ActivityID(activityID)); err != nil {
		h.writeDomainError(w, r, "Failed to unlink activity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// ListActivities returns all activities.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Store.ListActivities(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list activities", err)
		return
	}

	dtos := make([]ActivityDTO, len(activities))
	for i, a := range activities {
		dtos[i] = toActivityDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetActivity returns a single activity.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}

	a, err := h.Store.GetActivity(r.Context(), catalog.ActivityID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get activity", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(*a))
}

// CreateActivity creates an activity that is not linked anywhere yet.
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name, err := catalog.RequireName("name", req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity", err)
		return
	}
	if req.DurationWeeks != nil && *req.DurationWeeks < 0 {
		writeError(w, http.StatusBadRequest, "Invalid activity",
			catalog.Invalid("duration_weeks", "must not be negative, got %d", *req.DurationWeeks))
		return
	}
	if err := catalog.ValidateHours(catalog.HoursFromPtr(req.EffortHours)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity", err)
		return
	}

	a := catalog.Activity{
		ID:            catalog.ActivityID(catalog.NewID()),
		Name:          name,
		Category:      req.Category,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		EffortHours:   req.EffortHours,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.Store.CreateActivity(r.Context(), a); err != nil {
		h.writeDomainError(w, r, "Failed to create activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(a))
}

// DeleteActivity removes an activity together with its offering and node links.
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}
	if err := h.Store.DeleteActivity(r.Context(), catalog.ActivityID(id)); err != nil {
		h.writeDomainError(w, r, "Failed to delete activity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListActivityNodes returns the WBS nodes under an activity.
func (h *Handler) ListActivityNodes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}

	nodes, err := h.Store.ListActivityNodes(r.Context(), catalog.ActivityID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list activity nodes", err)
		return
	}
	writeJSON(w, http.StatusOK, toWBSNodeDTOs(nodes))
}

// LinkNode places a WBS node under an activity.
func (h *Handler) LinkNode(w http.ResponseWriter, r *http.Request) {
	activityID, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}
	nodeID, err := pathID(r, "wbsID", "wbs_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs id", err)
		return
	}
	link := catalog.ActivityNode{ActivityID: catalog.ActivityID(activityID), NodeID: catalog.NodeID(nodeID)}
	if err := h.Store.LinkNode(r.Context(), link); err != nil {
		h.writeDomainError(w, r, "Failed to link wbs node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkNode removes a WBS node from an activity.
func (h *Handler) UnlinkNode(w http.ResponseWriter, r *http.Request) {
	activityID, err := pathID(r, "activityID", "activity_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity id", err)
		return
	}
	nodeID, err := pathID(r, "wbsID", "wbs_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs id", err)
		return
	}
	if err := h.Store.UnlinkNode(r.Context(), catalog.ActivityID(activityID), catalog.NodeID(nodeID)); err != nil {
		h.writeDomainError(w, r, "Failed to unlink wbs node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WBS NODE HANDLERS
// =============================================================================

// ListNodes returns all WBS nodes.
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.Store.ListNodes(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list wbs nodes", err)
		return
	}
	writeJSON(w, http.StatusOK, toWBSNodeDTOs(nodes))
}

// GetNode returns a single WBS node.
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "wbsID", "wbs_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs id", err)
		return
	}

	n, err := h.Store.GetNode(r.Context(), catalog.NodeID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get wbs node", err)
		return
	}
	writeJSON(w, http.StatusOK, toWBSNodeDTO(*n))
}

// CreateNode creates a WBS node.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateWBSNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name, err := catalog.RequireName("name", req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs node", err)
		return
	}

	n := catalog.WorkBreakdownNode{
		ID:          catalog.NodeID(catalog.NewID()),
		Name:        name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.CreateNode(r.Context(), n); err != nil {
		h.writeDomainError(w, r, "Failed to create wbs node", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWBSNodeDTO(n))
}

// DeleteNode removes a WBS node with its links and assignments.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "wbsID", "wbs_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wbs id", err)
		return
	}
	if err := h.Store.DeleteNode(r.Context(), catalog.NodeID(id)); err != nil {
		h.writeDomainError(w, r, "Failed to delete wbs node", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toWBSNodeDTOs(nodes []catalog.WorkBreakdownNode) []WBSNodeDTO {
	dtos := make([]WBSNodeDTO, len(nodes))
	for i, n := range nodes {
		dtos[i] = toWBSNodeDTO(n)
	}
	return dtos
}
