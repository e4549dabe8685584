package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse_RoundTrip(t *testing.T) {
	a := NewAuthenticator(testSecret, "solution-configurator")
	id := Identity{Subject: "u-1", Name: "Ada", Roles: Roles{IsAdmin: true, HasCatalogAccess: true}}

	token, err := a.Issue(id, time.Hour)
	require.NoError(t, err)

	got, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParse_Rejects(t *testing.T) {
	a := NewAuthenticator(testSecret, "solution-configurator")
	id := Identity{Subject: "u-1"}

	expired, err := a.Issue(id, -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewAuthenticator("another-secret-another-secret", "solution-configurator").Issue(id, time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewAuthenticator(testSecret, "someone-else").Issue(id, time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssue_RequiresSubject(t *testing.T) {
	_, err := NewAuthenticator(testSecret, "").Issue(Identity{}, time.Hour)
	assert.Error(t, err)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func serve(m *Middleware, admin bool, header string) *httptest.ResponseRecorder {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if admin {
		h = m.RequireAdmin(h)
	}
	h = m.RequireAuth(h)

	req := httptest.NewRequest(http.MethodGet, "/api/offerings", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	a := NewAuthenticator(testSecret, "")
	m := NewMiddleware(a, nil)

	adminToken, err := a.Issue(Identity{Subject: "admin", Roles: Roles{IsAdmin: true}}, time.Hour)
	require.NoError(t, err)
	userToken, err := a.Issue(Identity{Subject: "user", Roles: Roles{HasCatalogAccess: true}}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(m, false, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(m, false, "Bearer nope").Code)
	assert.Equal(t, http.StatusNoContent, serve(m, false, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusForbidden, serve(m, true, "Bearer "+userToken).Code)
	assert.Equal(t, http.StatusNoContent, serve(m, true, "bearer "+adminToken).Code)
}

func TestMiddleware_DisabledRunsAsAnonymousAdmin(t *testing.T) {
	m := NewMiddleware(nil, nil)

	assert.Equal(t, http.StatusNoContent, serve(m, true, "").Code)
}
