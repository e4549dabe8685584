/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the catalog and costing types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts leave the service as JSON numbers with exactly two decimals,
  produced from decimal.Decimal via json.Number. Amounts arrive as JSON
  numbers or strings and are parsed straight into decimal.Decimal, never
  through float64. Absent prices are JSON null.

SEE ALSO:
  - handlers.go: Uses these types
  - costing/aggregate.go: CostSummary, CostLine
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solution-configurator/auth"
	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/costing"
	"github.com/warp/solution-configurator/store/sqlstore"
)

// =============================================================================
// COSTING
// =============================================================================

// StaffingRowDTO is one traversal row.
type StaffingRowDTO struct {
	StaffingID string `json:"staffing_id"`
	ActivityID string `json:"activity_id"`
	WBSID      string `json:"wbs_id"`
	Country    string `json:"country"`
	Role       string `json:"role"`
	Band       int64  `json:"band"`
	Hours      int64  `json:"hours"`
}

// CostSummaryDTO is the response of the cost summary endpoints.
type CostSummaryDTO struct {
	OfferingID     string        `json:"offering_id"`
	TotalHours     int64         `json:"total_hours"`
	TotalCost      json.Number   `json:"total_cost"`
	TotalSalePrice json.Number   `json:"total_sale_price"`
	Breakdown      []CostLineDTO `json:"breakdown"`
}

// CostLineDTO is one priced breakdown row.
type CostLineDTO struct {
	StaffingID       string      `json:"staffing_id"`
	ActivityID       string      `json:"activity_id"`
	WBSID            string      `json:"wbs_id"`
	Country          string      `json:"country"`
	Role             string      `json:"role"`
	Band             int64       `json:"band"`
	Hours            int64       `json:"hours"`
	CostPerHour      json.Number `json:"cost_per_hour"`
	SalePricePerHour json.Number `json:"sale_price_per_hour"`
	TotalCost        json.Number `json:"total_cost"`
	TotalSalePrice   json.Number `json:"total_sale_price"`
	Priced           bool        `json:"priced"`
}

// AssignStaffingRequest upserts the hours of a role on a WBS node.
// Omitted or null hours store "unspecified".
type AssignStaffingRequest struct {
	WBSID      string `json:"wbs_id"`
	StaffingID string `json:"staffing_id"`
	Hours      *int64 `json:"hours"`
}

// AssignmentAckDTO acknowledges an assignment write with the stored ids.
type AssignmentAckDTO struct {
	WBSID      string `json:"wbs_id"`
	StaffingID string `json:"staffing_id"`
	Hours      *int64 `json:"hours"`
}

func toAssignmentAckDTO(a catalog.StaffingAssignment) AssignmentAckDTO {
	return AssignmentAckDTO{
		WBSID:      string(a.NodeID),
		StaffingID: string(a.StaffingRoleID),
		Hours:      a.Hours.Ptr(),
	}
}

// CreatePricingRequest creates the rate card of a staffing role.
type CreatePricingRequest struct {
	StaffingID string              `json:"staffing_id"`
	Cost       decimal.NullDecimal `json:"cost"`
	SalePrice  decimal.NullDecimal `json:"sale_price"`
}

// UpdatePricingRequest is a partial rate card update. Omitted fields are
// kept; explicit nulls clear the price.
type UpdatePricingRequest struct {
	Cost      optionalAmount `json:"cost"`
	SalePrice optionalAmount `json:"sale_price"`
}

// optionalAmount records whether a JSON field was present at all.
type optionalAmount struct {
	Set   bool
	Value decimal.NullDecimal
}

func (o *optionalAmount) UnmarshalJSON(b []byte) error {
	o.Set = true
	return o.Value.UnmarshalJSON(b)
}

func (o optionalAmount) patch() *decimal.NullDecimal {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// RateCardDTO is a rate card with its role attributes.
type RateCardDTO struct {
	ID         string       `json:"id"`
	StaffingID string       `json:"staffing_id"`
	Country    string       `json:"country,omitempty"`
	Role       string       `json:"role,omitempty"`
	Band       *int64       `json:"band,omitempty"`
	Cost       *json.Number `json:"cost"`
	SalePrice  *json.Number `json:"sale_price"`
}

// =============================================================================
// CATALOG
// =============================================================================

// OfferingDTO represents an offering in API responses.
type OfferingDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateOfferingRequest is the body of POST /api/offerings.
type CreateOfferingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ActivityDTO represents an activity, optionally as linked into an offering.
type ActivityDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	DurationWeeks *int64    `json:"duration_weeks"`
	EffortHours   *int64    `json:"effort_hours"`
	CreatedAt     time.Time `json:"created_at"`
	Sequence      *int64    `json:"sequence,omitempty"`
	IsMandatory   *bool     `json:"is_mandatory,omitempty"`
}

// CreateActivityRequest is the body of POST /api/activities.
type CreateActivityRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	DurationWeeks *int64 `json:"duration_weeks"`
	EffortHours   *int64 `json:"effort_hours"`
}

// LinkActivityRequest places an activity in an offering.
// IsMandatory defaults to true.
type LinkActivityRequest struct {
	Sequence    *int64 `json:"sequence"`
	IsMandatory *bool  `json:"is_mandatory"`
}

// WBSNodeDTO represents a work-breakdown node.
type WBSNodeDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateWBSNodeRequest is the body of POST /api/wbs.
type CreateWBSNodeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StaffingRoleDTO represents a staffing role.
type StaffingRoleDTO struct {
	ID      string `json:"id"`
	Country string `json:"country"`
	Role    string `json:"role"`
	Band    int64  `json:"band"`
}

// StaffingRoleRequest creates or renames a staffing role.
type StaffingRoleRequest struct {
	Country string `json:"country"`
	Role    string `json:"role"`
	Band    int64  `json:"band"`
}

// AssignmentDTO is a staffing assignment of a WBS node.
type AssignmentDTO struct {
	WBSID      string `json:"wbs_id"`
	StaffingID string `json:"staffing_id"`
	Country    string `json:"country"`
	Role       string `json:"role"`
	Band       int64  `json:"band"`
	Hours      *int64 `json:"hours"`
}

// UpdateHoursRequest changes the hours of an existing assignment.
type UpdateHoursRequest struct {
	Hours *int64 `json:"hours"`
}

// =============================================================================
// SCENARIOS, IDENTITY, ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// IdentityDTO is the authenticated caller.
type IdentityDTO struct {
	Subject string     `json:"sub"`
	Name    string     `json:"name"`
	Roles   auth.Roles `json:"roles"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func nullAmount(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := amount(d.Decimal)
	return &n
}

func toStaffingRowDTOs(rows []costing.StaffingRow) []StaffingRowDTO {
	out := make([]StaffingRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, StaffingRowDTO{
			StaffingID: string(r.StaffingRoleID),
			ActivityID: string(r.ActivityID),
			WBSID:      string(r.NodeID),
			Country:    r.Country,
			Role:       r.Role,
			Band:       r.Band,
			Hours:      r.Hours,
		})
	}
	return out
}

// ToCostSummaryDTO renders a summary with two-decimal money.
func ToCostSummaryDTO(s *costing.CostSummary) CostSummaryDTO {
	dto := CostSummaryDTO{
		OfferingID:     string(s.OfferingID),
		TotalHours:     s.TotalHours,
		TotalCost:      amount(s.TotalCost),
		TotalSalePrice: amount(s.TotalSalePrice),
		Breakdown:      make([]CostLineDTO, 0, len(s.Breakdown)),
	}
	for _, l := range s.Breakdown {
		dto.Breakdown = append(dto.Breakdown, CostLineDTO{
			StaffingID:       string(l.StaffingRoleID),
			ActivityID:       string(l.ActivityID),
			WBSID:            string(l.NodeID),
			Country:          l.Country,
			Role:             l.Role,
			Band:             l.Band,
			Hours:            l.Hours,
			CostPerHour:      amount(l.CostPerHour),
			SalePricePerHour: amount(l.SalePricePerHour),
			TotalCost:        amount(l.TotalCost),
			TotalSalePrice:   amount(l.TotalSalePrice),
			Priced:           l.Priced,
		})
	}
	return dto
}

func toRateCardDTO(rc catalog.RateCard) RateCardDTO {
	return RateCardDTO{
		ID:         string(rc.ID),
		StaffingID: string(rc.StaffingRoleID),
		Cost:       nullAmount(rc.Cost),
		SalePrice:  nullAmount(rc.SalePrice),
	}
}

func toPricedRoleDTO(p catalog.PricedRole) RateCardDTO {
	dto := toRateCardDTO(p.RateCard)
	band := p.Band
	dto.Country, dto.Role, dto.Band = p.Country, p.Role, &band
	return dto
}

func toOfferingDTO(o catalog.Offering) OfferingDTO {
	return OfferingDTO{ID: string(o.ID), Name: o.Name, Description: o.Description, CreatedAt: o.CreatedAt}
}

func toActivityDTO(a catalog.Activity) ActivityDTO {
	return ActivityDTO{
		ID:            string(a.ID),
		Name:          a.Name,
		Category:      a.Category,
		Description:   a.Description,
		DurationWeeks: a.DurationWeeks,
		EffortHours:   a.EffortHours,
		CreatedAt:     a.CreatedAt,
	}
}

func toLinkedActivityDTO(la sqlstore.LinkedActivity) ActivityDTO {
	dto := toActivityDTO(la.Activity)
	mandatory := la.IsMandatory
	dto.Sequence, dto.IsMandatory = la.Sequence, &mandatory
	return dto
}

func toWBSNodeDTO(n catalog.WorkBreakdownNode) WBSNodeDTO {
	return WBSNodeDTO{ID: string(n.ID), Name: n.Name, Description: n.Description, CreatedAt: n.CreatedAt}
}

func toStaffingRoleDTO(r catalog.StaffingRole) StaffingRoleDTO {
	return StaffingRoleDTO{ID: string(r.ID), Country: r.Country, Role: r.Role, Band: r.Band}
}

func toAssignmentDTO(v catalog.AssignmentView) AssignmentDTO {
	return AssignmentDTO{
		WBSID:      string(v.NodeID),
		StaffingID: string(v.StaffingRoleID),
		Country:    v.Country,
		Role:       v.Role,
		Band:       v.Band,
		Hours:      v.Hours.Ptr(),
	}
}
