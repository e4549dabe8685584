package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// SESSIONS (catalog.SessionStore interface)
// =============================================================================

// WithReadTx runs fn in a read-only transaction so every query it issues
// sees the same snapshot. It does not wait for open write sessions.
func (s *Store) WithReadTx(ctx context.Context, fn func(catalog.Reader) error) error {
	return s.runTx(ctx, s.reader, s.dialect.readTxOptions(), func(c conn) error {
		return fn(&session{conn: c})
	})
}

// WithTx runs fn in a read-write transaction.
func (s *Store) WithTx(ctx context.Context, fn func(catalog.Session) error) error {
	return s.inTx(ctx, nil, func(c conn) error {
		return fn(&session{conn: c})
	})
}

// inTx runs fn in a read-write transaction on the primary pool.
func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn func(conn) error) error {
	return s.runTx(ctx, s.db, opts, fn)
}

// runTx begins a transaction on db, rolls it back if fn fails or panics
// and commits otherwise.
func (s *Store) runTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(conn) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(conn{q: tx, d: s.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type session struct {
	conn
}

// =============================================================================
// TRAVERSAL
// =============================================================================

// offeringStaffingQuery walks offering -> activities -> WBS nodes -> staffing
// in one inner join. Each (activity, node, role) path is its own row.
const offeringStaffingQuery = `
	SELECT oa.activity_id, oa.sequence, aw.wbs_id,
	       s.id, s.country, s.role, s.band, ws.hours
	FROM offering_activities oa
	JOIN activities a    ON a.id = oa.activity_id
	JOIN activity_wbs aw ON aw.activity_id = oa.activity_id
	JOIN wbs w           ON w.id = aw.wbs_id
	JOIN wbs_staffing ws ON ws.wbs_id = aw.wbs_id
	JOIN staffing s      ON s.id = ws.staffing_id
	WHERE oa.offering_id = ?
	ORDER BY CASE WHEN oa.sequence IS NULL THEN 1 ELSE 0 END,
	         oa.sequence, oa.activity_id, aw.wbs_id, s.id
`

func (s *session) OfferingStaffing(ctx context.Context, offeringID catalog.OfferingID) ([]catalog.StaffingPath, error) {
	rows, err := s.query(ctx, offeringStaffingQuery, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offering staffing: %w", err)
	}
	defer rows.Close()

	var paths []catalog.StaffingPath
	for rows.Next() {
		var (
			p     = catalog.StaffingPath{OfferingID: offeringID}
			hours sql.NullInt64
		)
		if err := rows.Scan(
			&p.ActivityID, &p.Sequence, &p.NodeID,
			&p.Role.ID, &p.Role.Country, &p.Role.Role, &p.Role.Band, &hours,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staffing path: %w", err)
		}
		p.Hours = hoursFromNull(hours)
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// =============================================================================
// READS
// =============================================================================

func (s *session) RateCardForRole(ctx context.Context, roleID catalog.StaffingRoleID) (*catalog.RateCard, error) {
	var rc catalog.RateCard
	err := s.queryRow(ctx,
		"SELECT id, staffing_id, cost, sale_price FROM rate_cards WHERE staffing_id = ?",
		roleID,
	).Scan(&rc.ID, &rc.StaffingRoleID, &rc.Cost, &rc.SalePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rate card: %w", err)
	}
	return &rc, nil
}

func (s *session) GetStaffingRole(ctx context.Context, roleID catalog.StaffingRoleID) (*catalog.StaffingRole, error) {
	role, err := getStaffingRole(ctx, s.conn, roleID)
	if catalog.IsNotFound(err) {
		return nil, nil
	}
	return role, err
}

func (s *session) GetNode(ctx context.Context, nodeID catalog.NodeID) (*catalog.WorkBreakdownNode, error) {
	n, err := getNode(ctx, s.conn, nodeID)
	if catalog.IsNotFound(err) {
		return nil, nil
	}
	return n, err
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

func (s *session) UpsertAssignment(ctx context.Context, a catalog.StaffingAssignment) error {
	ts := now()
	_, err := s.exec(ctx, `
		INSERT INTO wbs_staffing (wbs_id, staffing_id, hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (wbs_id, staffing_id)
		DO UPDATE SET hours = excluded.hours, updated_at = excluded.updated_at
	`, a.NodeID, a.StaffingRoleID, nullHours(a.Hours), ts, ts)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.NotFound(catalog.KindAssignment, fmt.Sprintf("%s/%s", a.NodeID, a.StaffingRoleID))
		}
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}
	return nil
}

func (s *session) InsertRateCard(ctx context.Context, rc catalog.RateCard) error {
	ts := now()
	_, err := s.exec(ctx, `
		INSERT INTO rate_cards (id, staffing_id, cost, sale_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rc.ID, rc.StaffingRoleID, rc.Cost, rc.SalePrice, ts, ts)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return catalog.Conflict(catalog.KindRateCard, rc.StaffingRoleID)
	case isForeignKeyViolation(err):
		return catalog.NotFound(catalog.KindStaffingRole, rc.StaffingRoleID)
	default:
		return fmt.Errorf("failed to insert rate card: %w", err)
	}
}

func (s *session) EnsureStaffingRole(ctx context.Context, role catalog.StaffingRole) (catalog.StaffingRole, bool, error) {
	res, err := s.exec(ctx, `
		INSERT INTO staffing (id, country, role, band)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (country, role, band) DO NOTHING
	`, role.ID, role.Country, role.Role, role.Band)
	if err != nil {
		return catalog.StaffingRole{}, false, fmt.Errorf("failed to insert staffing role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return catalog.StaffingRole{}, false, err
	}

	stored, err := findStaffingRole(ctx, s.conn, role.Key())
	if err != nil {
		return catalog.StaffingRole{}, false, err
	}
	return *stored, n == 1, nil
}

// =============================================================================
// NULL HELPERS
// =============================================================================

func nullHours(h catalog.Hours) sql.NullInt64 {
	return sql.NullInt64{Int64: h.Value, Valid: h.Valid}
}

func hoursFromNull(n sql.NullInt64) catalog.Hours {
	if !n.Valid {
		return catalog.NullHours()
	}
	return catalog.HoursOf(n.Int64)
}
