// Package store provides an in-memory catalog.SessionStore.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/solution-configurator/catalog"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps the whole graph in maps. Read sessions share an RLock; write
// sessions hold the write lock and work on a copy that replaces the live
// state only when the session succeeds.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	offerings     map[catalog.OfferingID]catalog.Offering
	activities    map[catalog.ActivityID]catalog.Activity
	nodes         map[catalog.NodeID]catalog.WorkBreakdownNode
	links         map[catalog.OfferingID][]catalog.OfferingActivity
	activityNodes map[catalog.ActivityID][]catalog.NodeID
	roles         map[catalog.StaffingRoleID]catalog.StaffingRole
	roleKeys      map[catalog.NaturalKey]catalog.StaffingRoleID
	assignments   map[catalog.NodeID][]catalog.StaffingAssignment
	rateCards     map[catalog.StaffingRoleID]catalog.RateCard
}

var (
	_ catalog.SessionStore = (*Memory)(nil)
	_ catalog.GraphBuilder = (*Memory)(nil)
)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{state: newState()}
}

func newState() *state {
	return &state{
		offerings:     make(map[catalog.OfferingID]catalog.Offering),
		activities:    make(map[catalog.ActivityID]catalog.Activity),
		nodes:         make(map[catalog.NodeID]catalog.WorkBreakdownNode),
		links:         make(map[catalog.OfferingID][]catalog.OfferingActivity),
		activityNodes: make(map[catalog.ActivityID][]catalog.NodeID),
		roles:         make(map[catalog.StaffingRoleID]catalog.StaffingRole),
		roleKeys:      make(map[catalog.NaturalKey]catalog.StaffingRoleID),
		assignments:   make(map[catalog.NodeID][]catalog.StaffingAssignment),
		rateCards:     make(map[catalog.StaffingRoleID]catalog.RateCard),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.offerings {
		c.offerings[k] = v
	}
	for k, v := range s.activities {
		c.activities[k] = v
	}
	for k, v := range s.nodes {
		c.nodes[k] = v
	}
	for k, v := range s.links {
		c.links[k] = append([]catalog.OfferingActivity(nil), v...)
	}
	for k, v := range s.activityNodes {
		c.activityNodes[k] = append([]catalog.NodeID(nil), v...)
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.roleKeys {
		c.roleKeys[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = append([]catalog.StaffingAssignment(nil), v...)
	}
	for k, v := range s.rateCards {
		c.rateCards[k] = v
	}
	return c
}

// =============================================================================
// SESSIONS (catalog.SessionStore)
// =============================================================================

// WithReadTx runs fn under the read lock.
func (m *Memory) WithReadTx(ctx context.Context, fn func(catalog.Reader) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&session{st: m.state})
}

// WithTx runs fn on a copy of the state and publishes it if fn succeeds.
func (m *Memory) WithTx(ctx context.Context, fn func(catalog.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&session{st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type session struct {
	st *state
}

func (s *session) OfferingStaffing(_ context.Context, offeringID catalog.OfferingID) ([]catalog.StaffingPath, error) {
	var paths []catalog.StaffingPath
	for _, link := range s.st.links[offeringID] {
		if _, ok := s.st.activities[link.ActivityID]; !ok {
			continue
		}
		for _, nodeID := range s.st.activityNodes[link.ActivityID] {
			if _, ok := s.st.nodes[nodeID]; !ok {
				continue
			}
			for _, a := range s.st.assignments[nodeID] {
				role, ok := s.st.roles[a.StaffingRoleID]
				if !ok {
					continue
				}
				paths = append(paths, catalog.StaffingPath{
					OfferingID: offeringID,
					ActivityID: link.ActivityID,
					Sequence:   link.Sequence,
					NodeID:     nodeID,
					Role:       role,
					Hours:      a.Hours,
				})
			}
		}
	}
	sortPaths(paths)
	return paths, nil
}

// sortPaths orders paths the same way the SQL store does: link sequence
// (nulls last), then activity, node and role id.
func sortPaths(paths []catalog.StaffingPath) {
	sort.SliceStable(paths, func(i, j int) bool {
		a, b := paths[i], paths[j]
		if (a.Sequence == nil) != (b.Sequence == nil) {
			return a.Sequence != nil
		}
		if a.Sequence != nil && *a.Sequence != *b.Sequence {
			return *a.Sequence < *b.Sequence
		}
		if a.ActivityID != b.ActivityID {
			return a.ActivityID < b.ActivityID
		}
		if a.NodeID != b.NodeID {
			return a.NodeID < b.NodeID
		}
		return a.Role.ID < b.Role.ID
	})
}

func (s *session) RateCardForRole(_ context.Context, roleID catalog.StaffingRoleID) (*catalog.RateCard, error) {
	rc, ok := s.st.rateCards[roleID]
	if !ok {
		return nil, nil
	}
	return &rc, nil
}

func (s *session) GetStaffingRole(_ context.Context, roleID catalog.StaffingRoleID) (*catalog.StaffingRole, error) {
	r, ok := s.st.roles[roleID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *session) GetNode(_ context.Context, nodeID catalog.NodeID) (*catalog.WorkBreakdownNode, error) {
	n, ok := s.st.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *session) UpsertAssignment(_ context.Context, a catalog.StaffingAssignment) error {
	if _, ok := s.st.nodes[a.NodeID]; !ok {
		return catalog.NotFound(catalog.KindNode, a.NodeID)
	}
	if _, ok := s.st.roles[a.StaffingRoleID]; !ok {
		return catalog.NotFound(catalog.KindStaffingRole, a.StaffingRoleID)
	}
	list := s.st.assignments[a.NodeID]
	for i := range list {
		if list[i].StaffingRoleID == a.StaffingRoleID {
			list[i].Hours = a.Hours
			return nil
		}
	}
	s.st.assignments[a.NodeID] = append(list, a)
	return nil
}

func (s *session) InsertRateCard(_ context.Context, rc catalog.RateCard) error {
	if _, ok := s.st.roles[rc.StaffingRoleID]; !ok {
		return catalog.NotFound(catalog.KindStaffingRole, rc.StaffingRoleID)
	}
	if _, ok := s.st.rateCards[rc.StaffingRoleID]; ok {
		return catalog.Conflict(catalog.KindRateCard, rc.StaffingRoleID)
	}
	s.st.rateCards[rc.StaffingRoleID] = rc
	return nil
}

func (s *session) EnsureStaffingRole(_ context.Context, role catalog.StaffingRole) (catalog.StaffingRole, bool, error) {
	if id, ok := s.st.roleKeys[role.Key()]; ok {
		return s.st.roles[id], false, nil
	}
	s.st.roles[role.ID] = role
	s.st.roleKeys[role.Key()] = role.ID
	return role, true, nil
}

// =============================================================================
// GRAPH BUILDING (catalog.GraphBuilder)
// =============================================================================

func (m *Memory) CreateOffering(_ context.Context, o catalog.Offering) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.offerings[o.ID]; ok {
		return catalog.Conflict(catalog.KindOffering, o.ID)
	}
	m.state.offerings[o.ID] = o
	return nil
}

func (m *Memory) CreateActivity(_ context.Context, a catalog.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.activities[a.ID]; ok {
		return catalog.Conflict(catalog.KindActivity, a.ID)
	}
	m.state.activities[a.ID] = a
	return nil
}

func (m *Memory) CreateNode(_ context.Context, n catalog.WorkBreakdownNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.nodes[n.ID]; ok {
		return catalog.Conflict(catalog.KindNode, n.ID)
	}
	m.state.nodes[n.ID] = n
	return nil
}

func (m *Memory) LinkActivity(_ context.Context, link catalog.OfferingActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.offerings[link.OfferingID]; !ok {
		return catalog.NotFound(catalog.KindOffering, link.OfferingID)
	}
	if _, ok := m.state.activities[link.ActivityID]; !ok {
		return catalog.NotFound(catalog.KindActivity, link.ActivityID)
	}
	list := m.state.links[link.OfferingID]
	for i := range list {
		if list[i].ActivityID == link.ActivityID {
			list[i] = link
			return nil
		}
	}
	m.state.links[link.OfferingID] = append(list, link)
	return nil
}

func (m *Memory) LinkNode(_ context.Context, link catalog.ActivityNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.activities[link.ActivityID]; !ok {
		return catalog.NotFound(catalog.KindActivity, link.ActivityID)
	}
	if _, ok := m.state.nodes[link.NodeID]; !ok {
		return catalog.NotFound(catalog.KindNode, link.NodeID)
	}
	for _, id := range m.state.activityNodes[link.ActivityID] {
		if id == link.NodeID {
			return nil
		}
	}
	m.state.activityNodes[link.ActivityID] = append(m.state.activityNodes[link.ActivityID], link.NodeID)
	return nil
}

// AssignmentCount returns the number of assignment rows for (node, role).
// Used by tests to check the upsert never duplicates rows.
func (m *Memory) AssignmentCount(nodeID catalog.NodeID, roleID catalog.StaffingRoleID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.state.assignments[nodeID] {
		if a.StaffingRoleID == roleID {
			n++
		}
	}
	return n
}
