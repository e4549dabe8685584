package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solution-configurator/catalog"
)

func seq(n int64) *int64 { return &n }

func TestOfferingStaffing_OrderAndFanOut(t *testing.T) {
	// GIVEN: One node shared by two activities, the second activity unsequenced
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateOffering(ctx, catalog.Offering{ID: "o1", Name: "Offering"}))
	require.NoError(t, m.CreateActivity(ctx, catalog.Activity{ID: "a-late", Name: "Late"}))
	require.NoError(t, m.CreateActivity(ctx, catalog.Activity{ID: "a-first", Name: "First"}))
	require.NoError(t, m.CreateNode(ctx, catalog.WorkBreakdownNode{ID: "n1", Name: "Shared"}))
	require.NoError(t, m.LinkActivity(ctx, catalog.OfferingActivity{OfferingID: "o1", ActivityID: "a-late"}))
	require.NoError(t, m.LinkActivity(ctx, catalog.OfferingActivity{OfferingID: "o1", ActivityID: "a-first", Sequence: seq(1)}))
	require.NoError(t, m.LinkNode(ctx, catalog.ActivityNode{ActivityID: "a-late", NodeID: "n1"}))
	require.NoError(t, m.LinkNode(ctx, catalog.ActivityNode{ActivityID: "a-first", NodeID: "n1"}))
	require.NoError(t, m.LinkNode(ctx, catalog.ActivityNode{ActivityID: "a-first", NodeID: "n1"}), "relinking is a no-op")

	require.NoError(t, m.WithTx(ctx, func(s catalog.Session) error {
		role, created, err := s.EnsureStaffingRole(ctx, catalog.StaffingRole{ID: "r1", Country: "US", Role: "Architect", Band: 3})
		require.True(t, created)
		if err != nil {
			return err
		}
		return s.UpsertAssignment(ctx, catalog.StaffingAssignment{NodeID: "n1", StaffingRoleID: role.ID, Hours: catalog.HoursOf(10)})
	}))

	// WHEN: Traversing the offering
	var paths []catalog.StaffingPath
	require.NoError(t, m.WithReadTx(ctx, func(r catalog.Reader) error {
		var err error
		paths, err = r.OfferingStaffing(ctx, "o1")
		return err
	}))

	// THEN: One row per activity path, sequenced activity first
	require.Len(t, paths, 2)
	assert.Equal(t, catalog.ActivityID("a-first"), paths[0].ActivityID)
	assert.Equal(t, catalog.ActivityID("a-late"), paths[1].ActivityID)
	assert.Nil(t, paths[1].Sequence)
	for _, p := range paths {
		assert.Equal(t, catalog.HoursOf(10), p.Hours)
		assert.Equal(t, "Architect", p.Role.Role)
	}
}

func TestWithTx_FailureDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(s catalog.Session) error {
		if _, _, err := s.EnsureStaffingRole(ctx, catalog.StaffingRole{ID: "r1", Country: "IN", Role: "Engineer", Band: 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, m.WithReadTx(ctx, func(r catalog.Reader) error {
		role, err := r.GetStaffingRole(ctx, "r1")
		assert.Nil(t, role)
		return err
	}))
}

func TestSessionWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateNode(ctx, catalog.WorkBreakdownNode{ID: "n1", Name: "Node"}))

	err := m.WithTx(ctx, func(s catalog.Session) error {
		first, created, err := s.EnsureStaffingRole(ctx, catalog.StaffingRole{ID: "r1", Country: "DE", Role: "PM", Band: 4})
		require.NoError(t, err)
		require.True(t, created)

		// Same natural key under a new id resolves to the stored role.
		again, created, err := s.EnsureStaffingRole(ctx, catalog.StaffingRole{ID: "r2", Country: "DE", Role: "PM", Band: 4})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)

		require.NoError(t, s.UpsertAssignment(ctx, catalog.StaffingAssignment{NodeID: "n1", StaffingRoleID: "r1", Hours: catalog.HoursOf(5)}))
		require.NoError(t, s.UpsertAssignment(ctx, catalog.StaffingAssignment{NodeID: "n1", StaffingRoleID: "r1", Hours: catalog.NullHours()}))
		assert.True(t, catalog.IsNotFound(s.UpsertAssignment(ctx, catalog.StaffingAssignment{NodeID: "nope", StaffingRoleID: "r1"})))
		assert.True(t, catalog.IsNotFound(s.UpsertAssignment(ctx, catalog.StaffingAssignment{NodeID: "n1", StaffingRoleID: "nope"})))

		rc := catalog.RateCard{ID: "rc1", StaffingRoleID: "r1", Cost: decimal.NewNullDecimal(decimal.NewFromInt(80))}
		require.NoError(t, s.InsertRateCard(ctx, rc))
		assert.True(t, catalog.IsConflict(s.InsertRateCard(ctx, catalog.RateCard{ID: "rc2", StaffingRoleID: "r1"})))
		assert.True(t, catalog.IsNotFound(s.InsertRateCard(ctx, catalog.RateCard{ID: "rc3", StaffingRoleID: "nope"})))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, m.AssignmentCount("n1", "r1"))
	require.NoError(t, m.WithReadTx(ctx, func(r catalog.Reader) error {
		rc, err := r.RateCardForRole(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, rc)
		assert.Equal(t, "80", rc.Cost.Decimal.String())
		assert.False(t, rc.SalePrice.Valid)
		return nil
	}))
}

func TestGraphBuilder_Errors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateOffering(ctx, catalog.Offering{ID: "o1"}))
	assert.True(t, catalog.IsConflict(m.CreateOffering(ctx, catalog.Offering{ID: "o1"})))
	assert.True(t, catalog.IsNotFound(m.LinkActivity(ctx, catalog.OfferingActivity{OfferingID: "o1", ActivityID: "missing"})))
	assert.True(t, catalog.IsNotFound(m.LinkActivity(ctx, catalog.OfferingActivity{OfferingID: "missing", ActivityID: "a1"})))
	assert.True(t, catalog.IsNotFound(m.LinkNode(ctx, catalog.ActivityNode{ActivityID: "missing", NodeID: "n1"})))
}
