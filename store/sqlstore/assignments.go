package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// STAFFING ASSIGNMENTS
// =============================================================================
// Creating an assignment goes through costing.Engine.AssignStaffingToNode.
// The calls here edit or remove existing rows only.

// ListNodeAssignments returns the staffing of a WBS node with role
// attributes, ordered by country, role and band.
func (s *Store) ListNodeAssignments(ctx context.Context, nodeID catalog.NodeID) ([]catalog.AssignmentView, error) {
	if _, err := s.GetNode(ctx, nodeID); err != nil {
		return nil, err
	}
	rows, err := s.conn().query(ctx, `
		SELECT ws.wbs_id, ws.staffing_id, ws.hours, s.country, s.role, s.band
		FROM wbs_staffing ws
		JOIN staffing s ON s.id = ws.staffing_id
		WHERE ws.wbs_id = ?
		ORDER BY s.country, s.role, s.band
	`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	views := []catalog.AssignmentView{}
	for rows.Next() {
		var (
			v     catalog.AssignmentView
			hours sql.NullInt64
		)
		if err := rows.Scan(&v.NodeID, &v.StaffingRoleID, &hours, &v.Country, &v.Role, &v.Band); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		v.Hours = hoursFromNull(hours)
		views = append(views, v)
	}
	return views, rows.Err()
}

// UpdateAssignmentHours changes the hours of an existing assignment.
func (s *Store) UpdateAssignmentHours(ctx context.Context, nodeID catalog.NodeID, roleID catalog.StaffingRoleID, hours catalog.Hours) error {
	res, err := s.conn().exec(ctx,
		"UPDATE wbs_staffing SET hours = ?, updated_at = ? WHERE wbs_id = ? AND staffing_id = ?",
		nullHours(hours), now(), nodeID, roleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return expectOne(res, catalog.KindAssignment, fmt.Sprintf("%s/%s", nodeID, roleID))
}

// DeleteAssignment removes a role from a WBS node.
func (s *Store) DeleteAssignment(ctx context.Context, nodeID catalog.NodeID, roleID catalog.StaffingRoleID) error {
	res, err := s.conn().exec(ctx,
		"DELETE FROM wbs_staffing WHERE wbs_id = ? AND staffing_id = ?",
		nodeID, roleID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return expectOne(res, catalog.KindAssignment, fmt.Sprintf("%s/%s", nodeID, roleID))
}
