package costing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// CostLine is one breakdown row: one traversal path priced at its role's rate.
type CostLine struct {
	StaffingRoleID   catalog.StaffingRoleID
	ActivityID       catalog.ActivityID
	NodeID           catalog.NodeID
	Country          string
	Role             string
	Band             int64
	Hours            int64
	CostPerHour      decimal.Decimal
	SalePricePerHour decimal.Decimal
	TotalCost        decimal.Decimal
	TotalSalePrice   decimal.Decimal

	// Priced is false when the role has no rate card.
	Priced bool
}

// CostSummary is the priced staffing of an offering.
// Sum(Breakdown.Hours) == TotalHours and Sum(Breakdown.TotalCost) == TotalCost.
type CostSummary struct {
	OfferingID     catalog.OfferingID
	TotalHours     int64
	TotalCost      decimal.Decimal
	TotalSalePrice decimal.Decimal
	Breakdown      []CostLine
}

// =============================================================================
// NULL POLICY
// =============================================================================
// Absent hours and absent prices count as zero. This is the only place the
// rule is applied; stores and the API carry nulls through unchanged.

func hoursOrZero(h catalog.Hours) int64 {
	if !h.Valid {
		return 0
	}
	return h.Value
}

func amountOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// =============================================================================
// AGGREGATION
// =============================================================================

// AggregateOfferingCost prices every staffing path of the offering. An
// offering without staffing, known or not, returns zero totals and an empty
// breakdown.
func (e *Engine) AggregateOfferingCost(ctx context.Context, offeringID catalog.OfferingID) (summary *CostSummary, err error) {
	id, err := catalog.ValidateID("offering_id", string(offeringID))
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "costing.AggregateOfferingCost",
		trace.WithAttributes(attribute.String("offering.id", id)))
	defer func() { endSpan(span, err) }()

	err = e.store.WithReadTx(ctx, func(r catalog.Reader) error {
		summary, err = summarize(ctx, r, catalog.OfferingID(id))
		return err
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("breakdown.rows", len(summary.Breakdown)),
		attribute.Int64("total.hours", summary.TotalHours),
	)
	e.log.Debug("offering cost aggregated",
		"offering_id", id,
		"rows", len(summary.Breakdown),
		"total_hours", summary.TotalHours,
		"total_cost", summary.TotalCost.StringFixed(2),
	)
	return summary, nil
}

// summarize runs traversal and rate resolution inside one session so the
// totals and the breakdown come from the same snapshot.
func summarize(ctx context.Context, r catalog.Reader, offeringID catalog.OfferingID) (*CostSummary, error) {
	summary := &CostSummary{
		OfferingID:     offeringID,
		TotalCost:      decimal.Zero,
		TotalSalePrice: decimal.Zero,
		Breakdown:      []CostLine{},
	}

	paths, err := traverse(ctx, r, offeringID)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return summary, nil
	}

	book := newRateBook(r)
	summary.Breakdown = make([]CostLine, 0, len(paths))
	for _, p := range paths {
		rc, err := book.lookup(ctx, p.Role.ID)
		if err != nil {
			return nil, err
		}
		line := priceLine(p, rc)

		summary.TotalHours += line.Hours
		summary.TotalCost = summary.TotalCost.Add(line.TotalCost)
		summary.TotalSalePrice = summary.TotalSalePrice.Add(line.TotalSalePrice)
		summary.Breakdown = append(summary.Breakdown, line)
	}
	return summary, nil
}

func priceLine(p catalog.StaffingPath, rc *catalog.RateCard) CostLine {
	hours := hoursOrZero(p.Hours)
	line := CostLine{
		StaffingRoleID:   p.Role.ID,
		ActivityID:       p.ActivityID,
		NodeID:           p.NodeID,
		Country:          p.Role.Country,
		Role:             p.Role.Role,
		Band:             p.Role.Band,
		Hours:            hours,
		CostPerHour:      decimal.Zero,
		SalePricePerHour: decimal.Zero,
		Priced:           rc != nil,
	}
	if rc != nil {
		line.CostPerHour = amountOrZero(rc.Cost)
		line.SalePricePerHour = amountOrZero(rc.SalePrice)
	}
	h := decimal.NewFromInt(hours)
	line.TotalCost = line.CostPerHour.Mul(h)
	line.TotalSalePrice = line.SalePricePerHour.Mul(h)
	return line
}
