package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// STAFFING ROLES
// =============================================================================
// Roles are created through costing.Engine.CreateStaffingRole, which reuses
// an existing role with the same natural key.

const staffingColumns = "id, country, role, band"

func scanStaffingRole(sc interface{ Scan(...any) error }) (*catalog.StaffingRole, error) {
	var r catalog.StaffingRole
	if err := sc.Scan(&r.ID, &r.Country, &r.Role, &r.Band); err != nil {
		return nil, err
	}
	return &r, nil
}

func getStaffingRole(ctx context.Context, c conn, id catalog.StaffingRoleID) (*catalog.StaffingRole, error) {
	r, err := scanStaffingRole(c.queryRow(ctx,
		"SELECT "+staffingColumns+" FROM staffing WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(catalog.KindStaffingRole, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staffing role: %w", err)
	}
	return r, nil
}

func findStaffingRole(ctx context.Context, c conn, key catalog.NaturalKey) (*catalog.StaffingRole, error) {
	r, err := scanStaffingRole(c.queryRow(ctx,
		"SELECT "+staffingColumns+" FROM staffing WHERE country = ? AND role = ? AND band = ?",
		key.Country, key.Role, key.Band))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(catalog.KindStaffingRole, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find staffing role: %w", err)
	}
	return r, nil
}

// GetStaffingRole returns a staffing role by id.
func (s *Store) GetStaffingRole(ctx context.Context, id catalog.StaffingRoleID) (*catalog.StaffingRole, error) {
	return getStaffingRole(ctx, s.conn(), id)
}

// FindStaffingRole returns the staffing role with the given natural key.
func (s *Store) FindStaffingRole(ctx context.Context, key catalog.NaturalKey) (*catalog.StaffingRole, error) {
	return findStaffingRole(ctx, s.conn(), key)
}

// ListStaffingRoles returns all staffing roles ordered by country, role and band.
func (s *Store) ListStaffingRoles(ctx context.Context) ([]catalog.StaffingRole, error) {
	rows, err := s.conn().query(ctx,
		"SELECT "+staffingColumns+" FROM staffing ORDER BY country, role, band")
	if err != nil {
		return nil, fmt.Errorf("failed to list staffing roles: %w", err)
	}
	defer rows.Close()

	roles := []catalog.StaffingRole{}
	for rows.Next() {
		r, err := scanStaffingRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staffing role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

// UpdateStaffingRole changes the natural key of a role. Moving onto a key
// that another role already holds is a conflict.
func (s *Store) UpdateStaffingRole(ctx context.Context, r catalog.StaffingRole) error {
	res, err := s.conn().exec(ctx,
		"UPDATE staffing SET country = ?, role = ?, band = ? WHERE id = ?",
		r.Country, r.Role, r.Band, r.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.Conflict(catalog.KindStaffingRole, r.Key())
		}
		return fmt.Errorf("failed to update staffing role: %w", err)
	}
	return expectOne(res, catalog.KindStaffingRole, r.ID)
}

// DeleteStaffingRole removes a role together with its rate card and
// assignments.
func (s *Store) DeleteStaffingRole(ctx context.Context, id catalog.StaffingRoleID) error {
	return s.deleteByID(ctx, "staffing", catalog.KindStaffingRole, id)
}
