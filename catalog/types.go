/*
Package catalog provides the entity model of the solution configurator.

PURPOSE:

	Offerings are sellable configurations built from activities. Activities
	are broken down into work-breakdown (WBS) nodes, and each node carries
	staffing assignments: a staffing role plus a number of hours. Every
	staffing role may have one rate card holding its hourly cost and sale
	price. The costing engine walks this graph to price an offering.

KEY CONCEPTS IN THIS FILE (types.go):
  - Typed identifiers (OfferingID, ActivityID, NodeID, StaffingRoleID, RateCardID)
  - Hours: optional non-negative hour count (NULL in storage)
  - Offering, Activity, WorkBreakdownNode: graph vertices
  - OfferingActivity, ActivityNode, StaffingAssignment: graph edges
  - StaffingRole: (country, role, band) natural key with a surrogate id
  - RateCard: optional cost / sale price per staffing role
  - StaffingPath: one offering -> activity -> node -> role path

DESIGN PRINCIPLES:
 1. Precision: money is decimal.Decimal, optional money is decimal.NullDecimal
 2. Explicit nulls: absent hours and absent rates are distinct from zero here;
    they are coalesced to zero only by the costing engine
 3. Type Safety: typed ids prevent mixing an offering id with a node id

SEE ALSO:
  - errors.go: NotFound / Conflict / Validation taxonomy
  - store.go: persistence interfaces
  - validate.go: input validation rules
  - costing/: traversal, rate resolution and aggregation
*/
package catalog

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	OfferingID     string
	ActivityID     string
	NodeID         string
	StaffingRoleID string
	RateCardID     string
)

// =============================================================================
// HOURS - Optional non-negative hour count
// =============================================================================

// Hours is an hour count that may be unspecified. The zero value is
// unspecified (NULL), not zero hours.
type Hours struct {
	Value int64
	Valid bool
}

// HoursOf returns a specified hour count.
func HoursOf(n int64) Hours {
	return Hours{Value: n, Valid: true}
}

// NullHours returns an unspecified hour count.
func NullHours() Hours {
	return Hours{}
}

// Ptr returns nil for unspecified hours.
func (h Hours) Ptr() *int64 {
	if !h.Valid {
		return nil
	}
	v := h.Value
	return &v
}

// HoursFromPtr is the inverse of Ptr.
func HoursFromPtr(p *int64) Hours {
	if p == nil {
		return Hours{}
	}
	return HoursOf(*p)
}

func (h Hours) String() string {
	if !h.Valid {
		return "null"
	}
	return strconv.FormatInt(h.Value, 10)
}

// =============================================================================
// GRAPH VERTICES
// =============================================================================

// Offering is the root of the costing graph.
type Offering struct {
	ID          OfferingID
	Name        string
	Description string
	CreatedAt   time.Time
}

// Activity is a unit of work linked to offerings and to WBS nodes.
type Activity struct {
	ID            ActivityID
	Name          string
	Category      string
	Description   string
	DurationWeeks *int64
	EffortHours   *int64
	CreatedAt     time.Time
}

// WorkBreakdownNode groups staffing assignments under one or more activities.
type WorkBreakdownNode struct {
	ID          NodeID
	Name        string
	Description string
	CreatedAt   time.Time
}

// =============================================================================
// GRAPH EDGES
// =============================================================================

// OfferingActivity links an activity into an offering.
type OfferingActivity struct {
	OfferingID  OfferingID
	ActivityID  ActivityID
	Sequence    *int64
	IsMandatory bool
}

// ActivityNode links a WBS node under an activity.
type ActivityNode struct {
	ActivityID ActivityID
	NodeID     NodeID
}

// StaffingAssignment allocates hours of a staffing role to a WBS node.
// (NodeID, StaffingRoleID) is its identity.
type StaffingAssignment struct {
	NodeID         NodeID
	StaffingRoleID StaffingRoleID
	Hours          Hours
}

// =============================================================================
// RATE CARD KEYS AND PRICES
// =============================================================================

// StaffingRole identifies a class of worker. (Country, Role, Band) is unique.
type StaffingRole struct {
	ID      StaffingRoleID
	Country string
	Role    string
	Band    int64
}

// NaturalKey is the unique (country, role, band) triple.
type NaturalKey struct {
	Country string
	Role    string
	Band    int64
}

func (s StaffingRole) Key() NaturalKey {
	return NaturalKey{Country: s.Country, Role: s.Role, Band: s.Band}
}

func (k NaturalKey) String() string {
	return k.Country + "/" + k.Role + "/" + strconv.FormatInt(k.Band, 10)
}

// RateCard holds the hourly cost and sale price of a staffing role.
// Either price may be unknown.
type RateCard struct {
	ID             RateCardID
	StaffingRoleID StaffingRoleID
	Cost           decimal.NullDecimal
	SalePrice      decimal.NullDecimal
}

// PricedRole is a rate card joined with its staffing role attributes.
type PricedRole struct {
	RateCard
	Country string
	Role    string
	Band    int64
}

// AssignmentView is a staffing assignment joined with its role attributes.
type AssignmentView struct {
	StaffingAssignment
	Country string
	Role    string
	Band    int64
}

// =============================================================================
// TRAVERSAL ROWS
// =============================================================================

// StaffingPath is one offering -> activity -> node -> staffing role path.
// Hours keeps the stored value, including NULL.
type StaffingPath struct {
	OfferingID OfferingID
	ActivityID ActivityID
	Sequence   *int64
	NodeID     NodeID
	Role       StaffingRole
	Hours      Hours
}
