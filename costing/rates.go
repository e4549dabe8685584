package costing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warp/solution-configurator/catalog"
)

// ResolveRate returns the current rate card of a staffing role, or nil if
// the role has none. A missing rate card is a valid state, not an error.
//
// Rates are always looked up by staffing role id. Looking them up by
// (country, role, band) would reach the same row through the natural key.
func (e *Engine) ResolveRate(ctx context.Context, roleID catalog.StaffingRoleID) (rc *catalog.RateCard, err error) {
	id, err := catalog.ValidateID("staffing_id", string(roleID))
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "costing.ResolveRate",
		trace.WithAttributes(attribute.String("staffing.id", id)))
	defer func() { endSpan(span, err) }()

	err = e.store.WithReadTx(ctx, func(r catalog.Reader) error {
		rc, err = resolveRate(ctx, r, catalog.StaffingRoleID(id))
		return err
	})
	return rc, err
}

func resolveRate(ctx context.Context, r catalog.Reader, roleID catalog.StaffingRoleID) (*catalog.RateCard, error) {
	rc, err := r.RateCardForRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("resolving rate for staffing role %s: %w", roleID, err)
	}
	return rc, nil
}

// rateBook resolves rates for one aggregation call. Each role is looked up
// once per call; nothing survives the call.
type rateBook struct {
	r     catalog.Reader
	rates map[catalog.StaffingRoleID]*catalog.RateCard
}

func newRateBook(r catalog.Reader) *rateBook {
	return &rateBook{r: r, rates: make(map[catalog.StaffingRoleID]*catalog.RateCard)}
}

func (b *rateBook) lookup(ctx context.Context, roleID catalog.StaffingRoleID) (*catalog.RateCard, error) {
	if rc, ok := b.rates[roleID]; ok {
		return rc, nil
	}
	rc, err := resolveRate(ctx, b.r, roleID)
	if err != nil {
		return nil, err
	}
	b.rates[roleID] = rc
	return rc, nil
}
