package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// OFFERINGS
// =============================================================================

// CreateOffering inserts a new offering.
func (s *Store) CreateOffering(ctx context.Context, o catalog.Offering) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now()
	}
	_, err := s.conn().exec(ctx,
		"INSERT INTO offerings (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		o.ID, o.Name, o.Description, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.Conflict(catalog.KindOffering, o.ID)
		}
		return fmt.Errorf("failed to create offering: %w", err)
	}
	return nil
}

// GetOffering returns an offering by id.
func (s *Store) GetOffering(ctx context.Context, id catalog.OfferingID) (*catalog.Offering, error) {
	var o catalog.Offering
	err := s.conn().queryRow(ctx,
		"SELECT id, name, description, created_at FROM offerings WHERE id = ?", id,
	).Scan(&o.ID, &o.Name, &o.Description, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(catalog.KindOffering, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	return &o, nil
}

// ListOfferings returns all offerings ordered by name.
func (s *Store) ListOfferings(ctx context.Context) ([]catalog.Offering, error) {
	rows, err := s.conn().query(ctx,
		"SELECT id, name, description, created_at FROM offerings ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list offerings: %w", err)
	}
	defer rows.Close()

	offerings := []catalog.Offering{}
	for rows.Next() {
		var o catalog.Offering
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan offering: %w", err)
		}
		offerings = append(offerings, o)
	}
	return offerings, rows.Err()
}

// DeleteOffering removes an offering and its activity links.
func (s *Store) DeleteOffering(ctx context.Context, id catalog.OfferingID) error {
	return s.deleteByID(ctx, "offerings", catalog.KindOffering, id)
}

// =============================================================================
// ACTIVITIES
// =============================================================================

// CreateActivity inserts a new activity.
func (s *Store) CreateActivity(ctx context.Context, a catalog.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	_, err := s.conn().exec(ctx, `
		INSERT INTO activities (id, name, category, description, duration_weeks, effort_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Category, a.Description, a.DurationWeeks, a.EffortHours, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.Conflict(catalog.KindActivity, a.ID)
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

const activityColumns = "a.id, a.name, a.category, a.description, a.duration_weeks, a.effort_hours, a.created_at"

func scanActivity(sc interface{ Scan(...any) error }, a *catalog.Activity, extra ...any) error {
	dest := append([]any{
		&a.ID, &a.Name, &a.Category, &a.Description, &a.DurationWeeks, &a.EffortHours, &a.CreatedAt,
	}, extra...)
	return sc.Scan(dest...)
}

// GetActivity returns an activity by id.
func (s *Store) GetActivity(ctx context.Context, id catalog.ActivityID) (*catalog.Activity, error) {
	var a catalog.Activity
	row := s.conn().queryRow(ctx, "SELECT "+activityColumns+" FROM activities a WHERE a.id = ?", id)
	err := scanActivity(row, &a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(catalog.KindActivity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &a, nil
}

// ListActivities returns all activities ordered by name.
func (s *Store) ListActivities(ctx context.Context) ([]catalog.Activity, error) {
	rows, err := s.conn().query(ctx, "SELECT "+activityColumns+" FROM activities a ORDER BY a.name, a.id")
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []catalog.Activity{}
	for rows.Next() {
		var a catalog.Activity
		if err := scanActivity(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// DeleteActivity removes an activity and its links.
func (s *Store) DeleteActivity(ctx context.Context, id catalog.ActivityID) error {
	return s.deleteByID(ctx, "activities", catalog.KindActivity, id)
}

// LinkedActivity is an activity as it appears inside an offering.
type LinkedActivity struct {
	catalog.Activity
	Sequence    *int64
	IsMandatory bool
}

// ListOfferingActivities returns the activities of an offering in sequence
// order, unsequenced activities last.
func (s *Store) ListOfferingActivities(ctx context.Context, offeringID catalog.OfferingID) ([]LinkedActivity, error) {
	if _, err := s.GetOffering(ctx, offeringID); err != nil {
		return nil, err
	}
	rows, err := s.conn().query(ctx, `
		SELECT `+activityColumns+`, oa.sequence, oa.is_mandatory
		FROM offering_activities oa
		JOIN activities a ON a.id = oa.activity_id
		WHERE oa.offering_id = ?
		ORDER BY CASE WHEN oa.sequence IS NULL THEN 1 ELSE 0 END, oa.sequence, a.id
	`, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offering activities: %w", err)
	}
	defer rows.Close()

	linked := []LinkedActivity{}
	for rows.Next() {
		var la LinkedActivity
		if err := scanActivity(rows, &la.Activity, &la.Sequence, &la.IsMandatory); err != nil {
			return nil, fmt.Errorf("failed to scan offering activity: %w", err)
		}
		linked = append(linked, la)
	}
	return linked, rows.Err()
}

// LinkActivity adds an activity to an offering. Linking an already linked
// activity updates its sequence and mandatory flag.
func (s *Store) LinkActivity(ctx context.Context, link catalog.OfferingActivity) error {
	return s.inTx(ctx, nil, func(c conn) error {
		if err := mustExist(ctx, c, "offerings", catalog.KindOffering, link.OfferingID); err != nil {
			return err
		}
		if err := mustExist(ctx, c, "activities", catalog.KindActivity, link.ActivityID); err != nil {
			return err
		}
		_, err := c.exec(ctx, `
			INSERT INTO offering_activities (offering_id, activity_id, sequence, is_mandatory)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (offering_id, activity_id)
			DO UPDATE SET sequence = excluded.sequence, is_mandatory = excluded.is_mandatory
		`, link.OfferingID, link.ActivityID, link.Sequence, link.IsMandatory)
		if err != nil {
			return fmt.Errorf("failed to link activity: %w", err)
		}
		return nil
	})
}

// UnlinkActivity removes an activity from an offering.
func (s *Store) UnlinkActivity(ctx context.Context, offeringID catalog.OfferingID, activityID catalog.ActivityID) error {
	res, err := s.conn().exec(ctx,
		"DELETE FROM offering_activities WHERE offering_id = ? AND activity_id = ?",
		offeringID, activityID,
	)
	if err != nil {
		return fmt.Errorf("failed to unlink activity: %w", err)
	}
	return expectOne(res, catalog.KindLink, fmt.Sprintf("%s/%s", offeringID, activityID))
}

// =============================================================================
// WBS NODES
// =============================================================================

// CreateNode inserts a new WBS node.
func (s *Store) CreateNode(ctx context.Context, n catalog.WorkBreakdownNode) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	_, err := s.conn().exec(ctx,
		"INSERT INTO wbs (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		n.ID, n.Name, n.Description, n.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.Conflict(catalog.KindNode, n.ID)
		}
		return fmt.Errorf("failed to create wbs node: %w", err)
	}
	return nil
}

func getNode(ctx context.Context, c conn, id catalog.NodeID) (*catalog.WorkBreakdownNode, error) {
	var n catalog.WorkBreakdownNode
	err := c.queryRow(ctx,
		"SELECT id, name, description, created_at FROM wbs WHERE id = ?", id,
	).Scan(&n.ID, &n.Name, &n.Description, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.NotFound(catalog.KindNode, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wbs node: %w", err)
	}
	return &n, nil
}

// GetNode returns a WBS node by id.
func (s *Store) GetNode(ctx context.Context, id catalog.NodeID) (*catalog.WorkBreakdownNode, error) {
	return getNode(ctx, s.conn(), id)
}

// ListNodes returns all WBS nodes ordered by name.
func (s *Store) ListNodes(ctx context.Context) ([]catalog.WorkBreakdownNode, error) {
	return s.queryNodes(ctx, "SELECT w.id, w.name, w.description, w.created_at FROM wbs w ORDER BY w.name, w.id")
}

// ListActivityNodes returns the WBS nodes under an activity.
func (s *Store) ListActivityNodes(ctx context.Context, activityID catalog.ActivityID) ([]catalog.WorkBreakdownNode, error) {
	if _, err := s.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}
	return s.queryNodes(ctx, `
		SELECT w.id, w.name, w.description, w.created_at
		FROM activity_wbs aw
		JOIN wbs w ON w.id = aw.wbs_id
		WHERE aw.activity_id = ?
		ORDER BY w.name, w.id
	`, activityID)
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]catalog.WorkBreakdownNode, error) {
	rows, err := s.conn().query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wbs nodes: %w", err)
	}
	defer rows.Close()

	nodes := []catalog.WorkBreakdownNode{}
	for rows.Next() {
		var n catalog.WorkBreakdownNode
		if err := rows.Scan(&n.ID, &n.Name, &n.Description, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wbs node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// DeleteNode removes a WBS node, its activity links and its assignments.
func (s *Store) DeleteNode(ctx context.Context, id catalog.NodeID) error {
	return s.deleteByID(ctx, "wbs", catalog.KindNode, id)
}

// LinkNode places a node under an activity. Linking twice is a no-op.
func (s *Store) LinkNode(ctx context.Context, link catalog.ActivityNode) error {
	return s.inTx(ctx, nil, func(c conn) error {
		if err := mustExist(ctx, c, "activities", catalog.KindActivity, link.ActivityID); err != nil {
			return err
		}
		if err := mustExist(ctx, c, "wbs", catalog.KindNode, link.NodeID); err != nil {
			return err
		}
		_, err := c.exec(ctx, `
			INSERT INTO activity_wbs (activity_id, wbs_id) VALUES (?, ?)
			ON CONFLICT (activity_id, wbs_id) DO NOTHING
		`, link.ActivityID, link.NodeID)
		if err != nil {
			return fmt.Errorf("failed to link wbs node: %w", err)
		}
		return nil
	})
}

// UnlinkNode removes a node from an activity.
func (s *Store) UnlinkNode(ctx context.Context, activityID catalog.ActivityID, nodeID catalog.NodeID) error {
	res, err := s.conn().exec(ctx,
		"DELETE FROM activity_wbs WHERE activity_id = ? AND wbs_id = ?",
		activityID, nodeID,
	)
	if err != nil {
		return fmt.Errorf("failed to unlink wbs node: %w", err)
	}
	return expectOne(res, catalog.KindLink, fmt.Sprintf("%s/%s", activityID, nodeID))
}

// =============================================================================
// HELPERS
// =============================================================================

func mustExist(ctx context.Context, c conn, table, kind string, id any) error {
	ok, err := c.exists(ctx, table, id)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", kind, err)
	}
	if !ok {
		return catalog.NotFound(kind, id)
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table, kind string, id any) error {
	res, err := s.conn().exec(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	return expectOne(res, kind, id)
}

// expectOne turns "no row affected" into NotFound.
func expectOne(res sql.Result, kind string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.NotFound(kind, id)
	}
	return nil
}
