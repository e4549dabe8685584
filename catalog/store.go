/*
store.go - Persistence interfaces for the costing graph

PURPOSE:
  Defines the interface between the costing engine and the database.
  The engine never holds a connection itself: every operation asks the
  SessionStore for a scoped session, and the store guarantees the session
  is committed or rolled back and released on every exit path.

KEY INTERFACES:
  Reader:       Read access used by traversal and rate resolution
  Writer:       Atomic conditional writes (upsert, unique insert)
  Session:      Reader + Writer inside one transaction
  SessionStore: Opens read-only and read-write sessions
  GraphBuilder: Collaborator CRUD needed to build a graph (seeding, tests)

ATOMIC WRITES:
  Writers never implement check-then-act. UpsertAssignment is a single
  insert-or-update keyed by (node, role); InsertRateCard relies on the
  unique staffing id constraint; EnsureStaffingRole inserts-or-ignores on
  the natural key and reads back the surviving row.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite and PostgreSQL
  - catalog/store:  In-memory for engine tests

SEE ALSO:
  - costing/engine.go: Uses SessionStore
  - errors.go: Errors returned by implementations
*/
package catalog

import "context"

// =============================================================================
// SESSIONS
// =============================================================================

// Reader is the read side of a session.
type Reader interface {
	// OfferingStaffing returns every offering -> activity -> node -> role
	// path of the offering, one element per path. Unknown offerings yield
	// an empty slice.
	OfferingStaffing(ctx context.Context, offeringID OfferingID) ([]StaffingPath, error)

	// RateCardForRole returns the rate card of a staffing role, or nil.
	RateCardForRole(ctx context.Context, roleID StaffingRoleID) (*RateCard, error)

	// GetStaffingRole returns a staffing role by id, or nil.
	GetStaffingRole(ctx context.Context, roleID StaffingRoleID) (*StaffingRole, error)

	// GetNode returns a WBS node by id, or nil.
	GetNode(ctx context.Context, nodeID NodeID) (*WorkBreakdownNode, error)
}

// Writer is the write side of a session.
type Writer interface {
	// UpsertAssignment creates the (node, role) assignment or overwrites
	// its hours. Returns ErrNotFound if node or role is missing.
	UpsertAssignment(ctx context.Context, a StaffingAssignment) error

	// InsertRateCard stores a new rate card. Returns ErrConflict if the
	// role already has one and ErrNotFound if the role is missing.
	InsertRateCard(ctx context.Context, rc RateCard) error

	// EnsureStaffingRole returns the role with the given natural key,
	// creating it with role.ID when absent. created reports which happened.
	EnsureStaffingRole(ctx context.Context, role StaffingRole) (stored StaffingRole, created bool, err error)
}

// Session is a Reader and Writer bound to one transaction.
type Session interface {
	Reader
	Writer
}

// SessionStore opens scoped sessions.
type SessionStore interface {
	// WithReadTx runs fn against a consistent read snapshot.
	WithReadTx(ctx context.Context, fn func(Reader) error) error

	// WithTx runs fn in a read-write transaction. If fn returns an error
	// the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Session) error) error
}

// =============================================================================
// GRAPH BUILDING - Collaborator CRUD
// =============================================================================

// GraphBuilder creates the vertices and edges of the costing graph.
type GraphBuilder interface {
	CreateOffering(ctx context.Context, o Offering) error
	CreateActivity(ctx context.Context, a Activity) error
	CreateNode(ctx context.Context, n WorkBreakdownNode) error

	// LinkActivity adds the activity to the offering, or updates the
	// sequence and mandatory flag of an existing link.
	LinkActivity(ctx context.Context, link OfferingActivity) error

	// LinkNode places the node under the activity. Linking twice is a no-op.
	LinkNode(ctx context.Context, link ActivityNode) error
}
