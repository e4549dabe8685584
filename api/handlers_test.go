/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Cost summary and staffing traversal endpoints
- Assignment upsert and rate card creation status codes
- Collaborator CRUD round trips
- Auth groups (401 / 403)
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solution-configurator/auth"
	"github.com/warp/solution-configurator/catalog"
	"github.com/warp/solution-configurator/costing"
	"github.com/warp/solution-configurator/store/sqlstore"
)

type testServer struct {
	t      *testing.T
	h      *Handler
	router http.Handler
	token  string
}

// newTestServer serves an in-memory SQLite catalog. A nil authenticator
// disables auth.
func newTestServer(t *testing.T, authn *auth.Authenticator) *testServer {
	t.Helper()
	st, err := sqlstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := NewHandler(st, costing.NewEngine(st), nil)
	router := NewRouter(h, RouterConfig{Auth: auth.NewMiddleware(authn, nil)})
	return &testServer{t: t, h: h, router: router}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// create POSTs body and returns the id of the created entity.
func (s *testServer) create(path, body string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, path, body)
	require.Contains(s.t, []int{http.StatusCreated, http.StatusOK}, rec.Code, rec.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(s.t, out.ID)
	return out.ID
}

func (s *testServer) loadScenario(id string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/scenarios/load", fmt.Sprintf(`{"scenario_id":%q}`, id))
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["offering_id"]
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// COSTING
// =============================================================================

func TestCostSummary_CloudMigration(t *testing.T) {
	// GIVEN: The cloud-migration catalog, where "Wave planning" sits under
	//        two activities and the project manager has no rate card
	// WHEN: Requesting the cost summary
	// THEN: Shared staffing is counted once per activity and the unpriced
	//       role contributes hours but no money

	s := newTestServer(t, nil)
	off := s.loadScenario("cloud-migration")

	rec := s.do(http.MethodGet, "/api/offerings/"+off+"/cost-summary", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_cost":14795.00`)

	summary := decodeBody[CostSummaryDTO](t, rec)
	assert.Equal(t, off, summary.OfferingID)
	assert.Equal(t, int64(266), summary.TotalHours)
	assert.Equal(t, "14795.00", summary.TotalCost.String())
	assert.Equal(t, "23280.00", summary.TotalSalePrice.String())
	require.Len(t, summary.Breakdown, 9)

	var hours int64
	for _, l := range summary.Breakdown {
		hours += l.Hours
		if l.Role == "Project Manager" {
			assert.False(t, l.Priced)
			assert.Equal(t, "0.00", l.TotalCost.String())
		}
	}
	assert.Equal(t, summary.TotalHours, hours)

	alias := s.do(http.MethodGet, "/api/totalHoursAndPrices/"+off, "")
	require.Equal(t, http.StatusOK, alias.Code)
	assert.JSONEq(t, rec.Body.String(), alias.Body.String())
}

func TestCostSummary_EmptyOffering(t *testing.T) {
	s := newTestServer(t, nil)
	off := s.loadScenario("empty-offering")

	rec := s.do(http.MethodGet, "/api/offerings/"+off+"/cost-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(
		`{"offering_id":%q,"total_hours":0,"total_cost":0.00,"total_sale_price":0.00,"breakdown":[]}`, off,
	), rec.Body.String())
}

func TestCostSummary_NullHoursAndPrices(t *testing.T) {
	s := newTestServer(t, nil)
	off := s.loadScenario("null-hours")

	summary := decodeBody[CostSummaryDTO](t, s.do(http.MethodGet, "/api/offerings/"+off+"/cost-summary", ""))
	assert.Equal(t, int64(20), summary.TotalHours)
	assert.Equal(t, "1400.00", summary.TotalCost.String())
	assert.Equal(t, "2200.00", summary.TotalSalePrice.String())
	require.Len(t, summary.Breakdown, 2)
}

func TestCostSummary_IDs(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/offerings/not-a-uuid/cost-summary", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "offering_id")

	rec = s.do(http.MethodGet, "/api/offerings/"+catalog.NewID()+"/cost-summary", "")
	assert.Equal(t, http.StatusOK, rec.Code, "unknown offerings cost nothing")
}

func TestOfferingStaffing_OrderedBySequence(t *testing.T) {
	// GIVEN: Activities with sequence 1, 2 and none
	// WHEN: Listing the staffing rows of the offering
	// THEN: Rows follow the activity sequence and unsequenced activities come last

	s := newTestServer(t, nil)
	off := s.loadScenario("cloud-migration")

	activities := decodeBody[[]ActivityDTO](t, s.do(http.MethodGet, "/api/offerings/"+off+"/activities", ""))
	require.Len(t, activities, 3)
	assert.Equal(t, "Assessment", activities[0].Name)
	assert.Equal(t, "Hypercare", activities[2].Name)
	assert.Nil(t, activities[2].Sequence)

	rows := decodeBody[[]StaffingRowDTO](t, s.do(http.MethodGet, "/api/staffing/offering/"+off, ""))
	require.Len(t, rows, 9)
	for _, row := range rows[:4] {
		assert.Equal(t, activities[0].ID, row.ActivityID)
	}
	assert.Equal(t, activities[2].ID, rows[8].ActivityID)
}

func TestOfferingStaffing_EmptyIsList(t *testing.T) {
	s := newTestServer(t, nil)
	off := s.loadScenario("empty-offering")

	rec := s.do(http.MethodGet, "/api/staffing/offering/"+off, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// =============================================================================
// MUTATIONS
// =============================================================================

// staffedNode creates an offering -> activity -> node chain and a role.
func staffedNode(s *testServer) (offering, node, role string) {
	offering = s.create("/api/offerings", `{"name":"Assessment Offering"}`)
	activity := s.create("/api/activities", `{"name":"Discovery","category":"discovery"}`)
	node = s.create("/api/wbs", `{"name":"Interviews"}`)
	role = s.create("/api/staffing", `{"country":"US","role":"Engineer","band":2}`)

	require.Equal(s.t, http.StatusNoContent,
		s.do(http.MethodPut, "/api/offerings/"+offering+"/activities/"+activity, `{"sequence":1}`).Code)
	require.Equal(s.t, http.StatusNoContent,
		s.do(http.MethodPut, "/api/activities/"+activity+"/wbs/"+node, "").Code)
	return offering, node, role
}

func TestAssignStaffing(t *testing.T) {
	s := newTestServer(t, nil)
	off, node, role := staffedNode(s)

	body := func(hours string) string {
		return fmt.Sprintf(`{"wbs_id":%q,"staffing_id":%q,"hours":%s}`, node, role, hours)
	}

	rec := s.do(http.MethodPut, "/api/wbs-staffing", body("10"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/api/wbs-staffing", body("25"))
	require.Equal(t, http.StatusOK, rec.Code, "POST is accepted as an alias")

	assignments := decodeBody[[]AssignmentDTO](t, s.do(http.MethodGet, "/api/wbs/"+node+"/staffing", ""))
	require.Len(t, assignments, 1)
	require.NotNil(t, assignments[0].Hours)
	assert.Equal(t, int64(25), *assignments[0].Hours)

	summary := decodeBody[CostSummaryDTO](t, s.do(http.MethodGet, "/api/offerings/"+off+"/cost-summary", ""))
	assert.Equal(t, int64(25), summary.TotalHours)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"negative hours", body("-1"), http.StatusBadRequest},
		{"malformed json", `{"wbs_id":`, http.StatusBadRequest},
		{"bad id", `{"wbs_id":"x","staffing_id":"y","hours":1}`, http.StatusBadRequest},
		{"missing node", fmt.Sprintf(`{"wbs_id":%q,"staffing_id":%q,"hours":1}`, catalog.NewID(), role), http.StatusNotFound},
		{"null hours", body("null"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPut, "/api/wbs-staffing", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAssignStaffing_AckCarriesStoredIDs(t *testing.T) {
	// GIVEN: Ids sent in upper case and braced form
	// WHEN: Assigning staffing
	// THEN: The acknowledgement names the ids the way they were stored

	s := newTestServer(t, nil)
	_, node, role := staffedNode(s)

	rec := s.do(http.MethodPut, "/api/wbs-staffing",
		fmt.Sprintf(`{"wbs_id":%q,"staffing_id":%q,"hours":7}`, strings.ToUpper(node), "{"+role+"}"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ack := decodeBody[AssignmentAckDTO](t, rec)
	assert.Equal(t, node, ack.WBSID)
	assert.Equal(t, role, ack.StaffingID)
	require.NotNil(t, ack.Hours)
	assert.Equal(t, int64(7), *ack.Hours)

	assignments := decodeBody[[]AssignmentDTO](t, s.do(http.MethodGet, "/api/wbs/"+node+"/staffing", ""))
	require.Len(t, assignments, 1)
	assert.Equal(t, role, assignments[0].StaffingID)
}

func TestCreatePricing(t *testing.T) {
	s := newTestServer(t, nil)
	role := s.create("/api/staffing", `{"country":"US","role":"Engineer","band":2}`)

	rec := s.do(http.MethodPost, "/api/pricing", fmt.Sprintf(`{"staffing_id":%q,"cost":95.5,"sale_price":"140"}`, role))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decodeBody[RateCardDTO](t, rec)
	require.NotNil(t, card.Cost)
	assert.Equal(t, "95.50", card.Cost.String())
	assert.Equal(t, "140.00", card.SalePrice.String())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"second card", fmt.Sprintf(`{"staffing_id":%q,"cost":1}`, role), http.StatusConflict},
		{"unknown role", fmt.Sprintf(`{"staffing_id":%q,"cost":1}`, catalog.NewID()), http.StatusNotFound},
		{"negative cost", fmt.Sprintf(`{"staffing_id":%q,"cost":-1}`, role), http.StatusBadRequest},
		{"three decimals", fmt.Sprintf(`{"staffing_id":%q,"cost":1.005}`, role), http.StatusBadRequest},
		{"not a number", fmt.Sprintf(`{"staffing_id":%q,"cost":"abc"}`, role), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/pricing", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdatePricing_Partial(t *testing.T) {
	s := newTestServer(t, nil)
	role := s.create("/api/staffing", `{"country":"US","role":"Engineer","band":2}`)
	card := s.create("/api/pricing", fmt.Sprintf(`{"staffing_id":%q,"cost":"90","sale_price":"130"}`, role))

	rec := s.do(http.MethodPatch, "/api/pricing/"+card, `{"sale_price":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[RateCardDTO](t, rec)
	assert.Equal(t, "90.00", updated.Cost.String(), "omitted fields are kept")
	assert.Nil(t, updated.SalePrice, "explicit null clears")

	byRole := decodeBody[RateCardDTO](t, s.do(http.MethodGet, "/api/pricing/staffing/"+role, ""))
	assert.Equal(t, card, byRole.ID)
	assert.Equal(t, "Engineer", byRole.Role)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/pricing/"+card, `{"cost":-5}`).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/pricing/"+card, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/pricing/"+card, "").Code)
}

// =============================================================================
// CATALOG CRUD
// =============================================================================

func TestStaffingRoles_CreateOrReuse(t *testing.T) {
	s := newTestServer(t, nil)

	first := s.do(http.MethodPost, "/api/staffing", `{"country":"DE","role":"Architect","band":3}`)
	require.Equal(t, http.StatusCreated, first.Code)
	second := s.do(http.MethodPost, "/api/staffing", `{"country":" DE ","role":"Architect","band":3}`)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, decodeBody[StaffingRoleDTO](t, first), decodeBody[StaffingRoleDTO](t, second))

	found := s.do(http.MethodGet, "/api/staffing/search?country=DE&role=Architect&band=3", "")
	require.Equal(t, http.StatusOK, found.Code)
	assert.Equal(t, decodeBody[StaffingRoleDTO](t, first).ID, decodeBody[StaffingRoleDTO](t, found).ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/staffing/search?country=DE&role=Architect&band=4", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/staffing/search?country=DE&role=Architect", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/staffing", `{"country":"DE","role":"Architect","band":-1}`).Code)
}

func TestStaffingRoles_UpdateConflict(t *testing.T) {
	s := newTestServer(t, nil)
	s.create("/api/staffing", `{"country":"DE","role":"Architect","band":3}`)
	other := s.create("/api/staffing", `{"country":"DE","role":"Architect","band":4}`)

	rec := s.do(http.MethodPut, "/api/staffing/"+other, `{"country":"DE","role":"Architect","band":3}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/api/staffing/"+other, `{"country":"DE","role":"Lead Architect","band":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lead Architect", decodeBody[StaffingRoleDTO](t, rec).Role)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/staffing/"+other, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/staffing/"+other, "").Code)
}

func TestLinkActivity_RelinkUpdatesSequence(t *testing.T) {
	s := newTestServer(t, nil)
	off := s.create("/api/offerings", `{"name":"Offering"}`)
	act := s.create("/api/activities", `{"name":"Build","effort_hours":40}`)

	path := "/api/offerings/" + off + "/activities/" + act
	require.Equal(t, http.StatusNoContent, s.do(http.MethodPut, path, `{"sequence":3}`).Code)
	require.Equal(t, http.StatusNoContent, s.do(http.MethodPut, path, `{"sequence":1,"is_mandatory":false}`).Code)

	activities := decodeBody[[]ActivityDTO](t, s.do(http.MethodGet, "/api/offerings/"+off+"/activities", ""))
	require.Len(t, activities, 1)
	require.NotNil(t, activities[0].Sequence)
	assert.Equal(t, int64(1), *activities[0].Sequence)
	assert.False(t, *activities[0].IsMandatory)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound,
		s.do(http.MethodPut, "/api/offerings/"+off+"/activities/"+catalog.NewID(), "").Code)
}

func TestAssignmentCRUD(t *testing.T) {
	s := newTestServer(t, nil)
	_, node, role := staffedNode(s)
	path := "/api/wbs/" + node + "/staffing/" + role

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, path, `{"hours":5}`).Code, "patch never creates")

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/wbs-staffing",
		fmt.Sprintf(`{"wbs_id":%q,"staffing_id":%q,"hours":8}`, node, role)).Code)
	rec := s.do(http.MethodPatch, path, `{"hours":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assignments := decodeBody[[]AssignmentDTO](t, s.do(http.MethodGet, "/api/wbs/"+node+"/staffing", ""))
	require.Len(t, assignments, 1)
	assert.Nil(t, assignments[0].Hours)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, "").Code)
	assert.JSONEq(t, `[]`, s.do(http.MethodGet, "/api/wbs/"+node+"/staffing", "").Body.String())
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/offerings", `{"name":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/activities", `{"name":"A","effort_hours":-3}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/wbs", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/wbs/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/wbs/"+catalog.NewID(), "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/nowhere", "").Code)
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuthGroups(t *testing.T) {
	// GIVEN: Auth enabled
	// WHEN: Calling read and write routes with and without the admin role
	// THEN: Reads need a token, writes need an admin token

	authn := auth.NewAuthenticator("0123456789abcdef0123456789abcdef", "")
	s := newTestServer(t, authn)

	userToken, err := authn.Issue(auth.Identity{Subject: "sa-1", Roles: auth.Roles{IsSolutionArchitect: true}}, time.Hour)
	require.NoError(t, err)
	adminToken, err := authn.Issue(auth.Identity{Subject: "admin-1", Name: "Admin", Roles: auth.Roles{IsAdmin: true}}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/healthz", "").Code, "health is public")
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/offerings", "").Code)

	s.token = userToken
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/offerings", "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/offerings", `{"name":"X"}`).Code)

	s.token = adminToken
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/offerings", `{"name":"X"}`).Code)

	me := decodeBody[IdentityDTO](t, s.do(http.MethodGet, "/api/me", ""))
	assert.Equal(t, "admin-1", me.Subject)
	assert.True(t, me.Roles.IsAdmin)
}
