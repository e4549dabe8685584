package costing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// STAFFING ASSIGNMENT
// =============================================================================

// AssignStaffingToNode sets the hours of a staffing role on a WBS node. The
// assignment is created if it does not exist and overwritten if it does, so
// concurrent calls for the same pair leave exactly one row behind holding
// one caller's hours. It returns the assignment as stored, with canonical ids.
func (e *Engine) AssignStaffingToNode(ctx context.Context, nodeID catalog.NodeID, roleID catalog.StaffingRoleID, hours catalog.Hours) (_ catalog.StaffingAssignment, err error) {
	nid, err := catalog.ValidateID("wbs_id", string(nodeID))
	if err != nil {
		return catalog.StaffingAssignment{}, err
	}
	rid, err := catalog.ValidateID("staffing_id", string(roleID))
	if err != nil {
		return catalog.StaffingAssignment{}, err
	}
	if err := catalog.ValidateHours(hours); err != nil {
		return catalog.StaffingAssignment{}, err
	}

	ctx, span := e.tracer.Start(ctx, "costing.AssignStaffingToNode",
		trace.WithAttributes(
			attribute.String("wbs.id", nid),
			attribute.String("staffing.id", rid),
		))
	defer func() { endSpan(span, err) }()

	a := catalog.StaffingAssignment{
		NodeID:         catalog.NodeID(nid),
		StaffingRoleID: catalog.StaffingRoleID(rid),
		Hours:          hours,
	}
	err = e.store.WithTx(ctx, func(s catalog.Session) error {
		node, err := s.GetNode(ctx, a.NodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return catalog.NotFound(catalog.KindNode, a.NodeID)
		}
		role, err := s.GetStaffingRole(ctx, a.StaffingRoleID)
		if err != nil {
			return err
		}
		if role == nil {
			return catalog.NotFound(catalog.KindStaffingRole, a.StaffingRoleID)
		}
		// The existence checks only produce clean errors. The upsert itself is
		// a single statement and the store's foreign keys still guard it.
		return s.UpsertAssignment(ctx, a)
	})
	if err != nil {
		return catalog.StaffingAssignment{}, err
	}

	e.log.Info("staffing assigned",
		"wbs_id", nid,
		"staffing_id", rid,
		"hours", hours.String(),
	)
	return a, nil
}

// =============================================================================
// RATE CARDS
// =============================================================================

// CreateRateCard stores the rate card of a staffing role. A role has at most
// one rate card; a second create fails with a ConflictError no matter how
// the calls interleave.
func (e *Engine) CreateRateCard(ctx context.Context, roleID catalog.StaffingRoleID, cost, salePrice decimal.NullDecimal) (rc catalog.RateCard, err error) {
	rid, err := catalog.ValidateID("staffing_id", string(roleID))
	if err != nil {
		return catalog.RateCard{}, err
	}
	if err := catalog.ValidateAmount("cost", cost); err != nil {
		return catalog.RateCard{}, err
	}
	if err := catalog.ValidateAmount("sale_price", salePrice); err != nil {
		return catalog.RateCard{}, err
	}

	ctx, span := e.tracer.Start(ctx, "costing.CreateRateCard",
		trace.WithAttributes(attribute.String("staffing.id", rid)))
	defer func() { endSpan(span, err) }()

	rc = catalog.RateCard{
		ID:             catalog.RateCardID(e.newID()),
		StaffingRoleID: catalog.StaffingRoleID(rid),
		Cost:           cost,
		SalePrice:      salePrice,
	}
	err = e.store.WithTx(ctx, func(s catalog.Session) error {
		return s.InsertRateCard(ctx, rc)
	})
	if err != nil {
		if catalog.IsConflict(err) {
			e.log.Warn("rate card already exists", "staffing_id", rid)
		}
		return catalog.RateCard{}, err
	}

	e.log.Info("rate card created",
		"rate_card_id", rc.ID,
		"staffing_id", rid,
	)
	return rc, nil
}

// =============================================================================
// STAFFING ROLES
// =============================================================================

// CreateStaffingRole returns the staffing role with the given natural key,
// creating it if needed. created is false when an existing role was reused;
// concurrent calls with the same key all get the same id.
func (e *Engine) CreateStaffingRole(ctx context.Context, country, role string, band int64) (sr catalog.StaffingRole, created bool, err error) {
	key, err := catalog.NormalizeStaffingRole(country, role, band)
	if err != nil {
		return catalog.StaffingRole{}, false, err
	}

	ctx, span := e.tracer.Start(ctx, "costing.CreateStaffingRole",
		trace.WithAttributes(attribute.String("staffing.key", key.String())))
	defer func() { endSpan(span, err) }()

	candidate := catalog.StaffingRole{
		ID:      catalog.StaffingRoleID(e.newID()),
		Country: key.Country,
		Role:    key.Role,
		Band:    key.Band,
	}
	err = e.store.WithTx(ctx, func(s catalog.Session) error {
		sr, created, err = s.EnsureStaffingRole(ctx, candidate)
		return err
	})
	if err != nil {
		return catalog.StaffingRole{}, false, fmt.Errorf("ensuring staffing role %s: %w", key, err)
	}

	span.SetAttributes(attribute.Bool("staffing.created", created))
	if created {
		e.log.Info("staffing role created", "staffing_id", sr.ID, "key", key.String())
	}
	return sr, created, nil
}
