package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// RATE CARDS
// =============================================================================
// Rate cards are created through costing.Engine.CreateRateCard so the
// one-per-role rule is enforced by a single insert.

const pricedRoleQuery = `
	SELECT rc.id, rc.staffing_id, rc.cost, rc.sale_price, s.country, s.role, s.band
	FROM rate_cards rc
	JOIN staffing s ON s.id = rc.staffing_id
`

func scanPricedRole(sc interface{ Scan(...any) error }) (*catalog.PricedRole, error) {
	var p catalog.PricedRole
	err := sc.Scan(&p.ID, &p.StaffingRoleID, &p.Cost, &p.SalePrice, &p.Country, &p.Role, &p.Band)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRateCards returns every rate card with its role attributes.
func (s *Store) ListRateCards(ctx context.Context) ([]catalog.PricedRole, error) {
	rows, err := s.conn().query(ctx, pricedRoleQuery+" ORDER BY s.country, s.role, s.band")
	if err != nil {
		return nil, fmt.Errorf("failed to list rate cards: %w", err)
	}
	defer rows.Close()

	cards := []catalog.PricedRole{}
	for rows.Next() {
		p, err := scanPricedRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate card: %w", err)
		}
		cards = append(cards, *p)
	}
	return cards, rows.Err()
}

// GetRateCard returns a rate card by id.
func (s *Store) GetRateCard(ctx context.Context, id catalog.RateCardID) (*catalog.PricedRole, error) {
	return s.getPricedRole(ctx, pricedRoleQuery+" WHERE rc.id = ?", id)
}

// GetRateCardByStaffing returns the rate card of a staffing role.
func (s *Store) GetRateCardByStaffing(ctx context.Context, roleID catalog.StaffingRoleID) (*catalog.PricedRole, error) {
	return s.getPricedRole(ctx, pricedRoleQuery+" WHERE rc.staffing_id = ?", roleID)
}

func (s *Store) getPricedRole(ctx context.Context, query string, id any) (*catalog.PricedRole, error) {
	p, err := scanPricedRole(s.conn().queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(catalog.KindRateCard, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate card: %w", err)
	}
	return p, nil
}

// RateCardPatch is a partial rate card update. A nil field keeps the stored
// value; a non-nil field holding an invalid NullDecimal clears it.
type RateCardPatch struct {
	Cost      *decimal.NullDecimal
	SalePrice *decimal.NullDecimal
}

// UpdateRateCard applies patch and returns the updated card.
func (s *Store) UpdateRateCard(ctx context.Context, id catalog.RateCardID, patch RateCardPatch) (*catalog.PricedRole, error) {
	var updated *catalog.PricedRole
	err := s.inTx(ctx, nil, func(c conn) error {
		current, err := scanPricedRole(c.queryRow(ctx, pricedRoleQuery+" WHERE rc.id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.NotFound(catalog.KindRateCard, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load rate card: %w", err)
		}

		if patch.Cost != nil {
			current.Cost = *patch.Cost
		}
		if patch.SalePrice != nil {
			current.SalePrice = *patch.SalePrice
		}
		if _, err := c.exec(ctx,
			"UPDATE rate_cards SET cost = ?, sale_price = ?, updated_at = ? WHERE id = ?",
			current.Cost, current.SalePrice, now(), id,
		); err != nil {
			return fmt.Errorf("failed to update rate card: %w", err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRateCard removes a rate card. The role becomes unpriced.
func (s *Store) DeleteRateCard(ctx context.Context, id catalog.RateCardID) error {
	return s.deleteByID(ctx, "rate_cards", catalog.KindRateCard, id)
}
