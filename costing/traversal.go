package costing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/warp/solution-configurator/catalog"
)

// StaffingRow is one staffing allocation reachable from an offering.
// A role reached through two activities or two nodes yields two rows.
type StaffingRow struct {
	StaffingRoleID catalog.StaffingRoleID
	ActivityID     catalog.ActivityID
	NodeID         catalog.NodeID
	Country        string
	Role           string
	Band           int64
	Hours          int64
}

// ResolveOfferingStaffing lists every (activity, node, staffing role) path
// of the offering. An unknown offering or one without staffing yields an
// empty slice.
func (e *Engine) ResolveOfferingStaffing(ctx context.Context, offeringID catalog.OfferingID) (rows []StaffingRow, err error) {
	id, err := catalog.ValidateID("offering_id", string(offeringID))
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "costing.ResolveOfferingStaffing",
		trace.WithAttributes(attribute.String("offering.id", id)))
	defer func() { endSpan(span, err) }()

	err = e.store.WithReadTx(ctx, func(r catalog.Reader) error {
		paths, err := traverse(ctx, r, catalog.OfferingID(id))
		if err != nil {
			return err
		}
		rows = make([]StaffingRow, 0, len(paths))
		for _, p := range paths {
			rows = append(rows, StaffingRow{
				StaffingRoleID: p.Role.ID,
				ActivityID:     p.ActivityID,
				NodeID:         p.NodeID,
				Country:        p.Role.Country,
				Role:           p.Role.Role,
				Band:           p.Role.Band,
				Hours:          hoursOrZero(p.Hours),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("staffing.rows", len(rows)))
	return rows, nil
}

// traverse reads the offering's paths inside an open session.
func traverse(ctx context.Context, r catalog.Reader, offeringID catalog.OfferingID) ([]catalog.StaffingPath, error) {
	paths, err := r.OfferingStaffing(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("traversing offering %s: %w", offeringID, err)
	}
	return paths, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
