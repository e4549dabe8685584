package costing_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/catalog/store"
	"github.com/warp/solution-configurator/costing"
	"github.com/warp/solution-configurator/store/sqlstore"
)

// =============================================================================
// TEST HELPERS
// =============================================================================
// Every costing property is checked against each backend. The SQLite
// backend is file-backed so concurrent tests get one connection per
// goroutine sharing the same database.

type graphStore interface {
	catalog.SessionStore
	catalog.GraphBuilder
}

type backend struct {
	name string
	open func(t *testing.T) graphStore
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			open: func(t *testing.T) graphStore { return store.NewMemory() },
		},
		{
			name: "sqlite",
			open: func(t *testing.T) graphStore {
				st, err := sqlstore.OpenSQLite(filepath.Join(t.TempDir(), "costing.db"))
				require.NoError(t, err)
				t.Cleanup(func() { st.Close() })
				return st
			},
		},
	}
}

// forEachBackend runs fn once per backend as a subtest.
func forEachBackend(t *testing.T, fn func(t *testing.T, g *graph)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			fn(t, newGraph(t, b.open(t)))
		})
	}
}

// graph builds costing graphs with terse calls.
type graph struct {
	t      *testing.T
	ctx    context.Context
	st     graphStore
	engine *costing.Engine
}

func newGraph(t *testing.T, st graphStore, opts ...costing.Option) *graph {
	return &graph{
		t:      t,
		ctx:    context.Background(),
		st:     st,
		engine: costing.NewEngine(st, opts...),
	}
}

func (g *graph) offering() catalog.OfferingID {
	g.t.Helper()
	id := catalog.OfferingID(catalog.NewID())
	require.NoError(g.t, g.st.CreateOffering(g.ctx, catalog.Offering{ID: id, Name: "Offering " + string(id[:8])}))
	return id
}

// activity creates an activity and links it into the offering.
func (g *graph) activity(offering catalog.OfferingID, seq int64) catalog.ActivityID {
	g.t.Helper()
	id := catalog.ActivityID(catalog.NewID())
	require.NoError(g.t, g.st.CreateActivity(g.ctx, catalog.Activity{ID: id, Name: "Activity " + string(id[:8])}))
	require.NoError(g.t, g.st.LinkActivity(g.ctx, catalog.OfferingActivity{
		OfferingID:  offering,
		ActivityID:  id,
		Sequence:    &seq,
		IsMandatory: true,
	}))
	return id
}

// node creates a WBS node under the given activities.
func (g *graph) node(activities ...catalog.ActivityID) catalog.NodeID {
	g.t.Helper()
	id := catalog.NodeID(catalog.NewID())
	require.NoError(g.t, g.st.CreateNode(g.ctx, catalog.WorkBreakdownNode{ID: id, Name: "Node " + string(id[:8])}))
	for _, a := range activities {
		require.NoError(g.t, g.st.LinkNode(g.ctx, catalog.ActivityNode{ActivityID: a, NodeID: id}))
	}
	return id
}

func (g *graph) role(country, role string, band int64) catalog.StaffingRoleID {
	g.t.Helper()
	sr, _, err := g.engine.CreateStaffingRole(g.ctx, country, role, band)
	require.NoError(g.t, err)
	return sr.ID
}

func (g *graph) assign(node catalog.NodeID, role catalog.StaffingRoleID, hours catalog.Hours) {
	g.t.Helper()
	_, err := g.engine.AssignStaffingToNode(g.ctx, node, role, hours)
	require.NoError(g.t, err)
}

// rate creates a rate card; an empty string leaves that price unset.
func (g *graph) rate(role catalog.StaffingRoleID, cost, sale string) {
	g.t.Helper()
	_, err := g.engine.CreateRateCard(g.ctx, role, money(cost), money(sale))
	require.NoError(g.t, err)
}

func money(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// countRows counts traversal rows of role in offering.
func (g *graph) countRows(offering catalog.OfferingID, role catalog.StaffingRoleID) (int, []int64) {
	g.t.Helper()
	rows, err := g.engine.ResolveOfferingStaffing(g.ctx, offering)
	require.NoError(g.t, err)
	n := 0
	var hours []int64
	for _, r := range rows {
		if r.StaffingRoleID == role {
			n++
			hours = append(hours, r.Hours)
		}
	}
	return n, hours
}
