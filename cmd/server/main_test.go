package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solution-configurator/api"
	"github.com/warp/solution-configurator/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

// offline runs commands that never serve requests, with auth turned off.
func offline(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIGURATOR_LOG_MODE", "prod")
	t.Setenv("CONFIGURATOR_AUTH_ENABLED", "false")
}

func TestSeedThenCost(t *testing.T) {
	// GIVEN: A fresh SQLite file
	// WHEN: Seeding the cloud-migration scenario and costing its offering
	// THEN: The cost command prints the same totals as the API

	offline(t)
	db := filepath.Join(t.TempDir(), "configurator.db")

	offeringID, err := run(t, "seed", "cloud-migration", "--db", db, "--driver", "sqlite")
	require.NoError(t, err)
	require.NotEmpty(t, offeringID)

	out, err := run(t, "cost", offeringID, "--db", db)
	require.NoError(t, err)

	var summary api.CostSummaryDTO
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, int64(266), summary.TotalHours)
	assert.Equal(t, "14795.00", summary.TotalCost.String())
	assert.Equal(t, "23280.00", summary.TotalSalePrice.String())
}

func TestSeed_UnknownScenario(t *testing.T) {
	offline(t)
	_, err := run(t, "seed", "nope", "--db", filepath.Join(t.TempDir(), "c.db"))
	assert.ErrorIs(t, err, api.ErrUnknownScenario)
}

func TestMigrate(t *testing.T) {
	offline(t)
	_, err := run(t, "migrate", "--db", filepath.Join(t.TempDir(), "c.db"))
	assert.NoError(t, err)
}

func TestInvalidDriverFlag(t *testing.T) {
	offline(t)
	_, err := run(t, "migrate", "--driver", "mysql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestServe_RefusesToStartWithoutSecret(t *testing.T) {
	// GIVEN: No secret and no explicit opt-out
	// WHEN: Starting the server
	// THEN: It fails before listening instead of serving every caller as admin

	t.Setenv("CONFIGURATOR_LOG_MODE", "prod")
	t.Setenv("CONFIGURATOR_AUTH_ENABLED", "")
	t.Setenv("CONFIGURATOR_JWT_SECRET", "")

	_, err := run(t, "serve", "--db", filepath.Join(t.TempDir(), "c.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestToken(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	t.Setenv("CONFIGURATOR_JWT_SECRET", secret)

	token, err := run(t, "token", "--admin", "--subject", "ops")
	require.NoError(t, err)

	id, err := auth.NewAuthenticator(secret, "solution-configurator").Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", id.Subject)
	assert.True(t, id.Roles.IsAdmin)
}
