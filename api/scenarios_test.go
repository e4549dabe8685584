/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Tests that each scenario builds the catalog it describes and that
	loading one replaces whatever was loaded before.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solution-configurator/costing"
	"github.com/warp/solution-configurator/store/sqlstore"
)

func TestLoadScenario_AllScenariosLoad(t *testing.T) {
	st, err := sqlstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	engine := costing.NewEngine(st)
	ctx := context.Background()

	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			off, err := LoadScenario(ctx, st, engine, sc.ID)
			require.NoError(t, err)

			offerings, err := st.ListOfferings(ctx)
			require.NoError(t, err)
			require.Len(t, offerings, 1, "loading resets the previous scenario")
			assert.Equal(t, off, offerings[0].ID)
		})
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/scenarios/load", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := LoadScenario(context.Background(), s.h.Store, s.h.Engine, "nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestScenarioEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	list := decodeBody[[]ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios", ""))
	assert.Len(t, list, len(scenarios))

	current := decodeBody[map[string]*ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios/current", ""))
	assert.Nil(t, current["scenario"])

	s.loadScenario("null-hours")
	current = decodeBody[map[string]*ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios/current", ""))
	require.NotNil(t, current["scenario"])
	assert.Equal(t, "null-hours", current["scenario"].ID)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/scenarios/reset", "").Code)
	assert.JSONEq(t, `[]`, s.do(http.MethodGet, "/api/offerings", "").Body.String())
	current = decodeBody[map[string]*ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios/current", ""))
	assert.Nil(t, current["scenario"])
}

func TestCloudMigrationScenario_SharedNodeCountedPerActivity(t *testing.T) {
	s := newTestServer(t, nil)
	off := s.loadScenario("cloud-migration")

	summary := decodeBody[CostSummaryDTO](t, s.do(http.MethodGet, "/api/offerings/"+off+"/cost-summary", ""))

	var architectHours int64
	for _, l := range summary.Breakdown {
		if l.Role == "Solution Architect" {
			architectHours += l.Hours
			assert.Equal(t, "120.00", l.CostPerHour.String())
		}
	}
	assert.Equal(t, int64(24+16+16), architectHours)
}
