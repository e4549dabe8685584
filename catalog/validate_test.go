package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	id, err := ValidateID("offering_id", "  3F2504E0-4F89-11D3-9A0C-0305E82C3301 ")
	require.NoError(t, err)
	assert.Equal(t, "3f2504e0-4f89-11d3-9a0c-0305e82c3301", id)

	for _, bad := range []string{"", "   ", "abc", "3f2504e0-4f89"} {
		_, err := ValidateID("offering_id", bad)
		assert.True(t, IsValidation(err), "input %q", bad)
	}
}

func TestValidateHours(t *testing.T) {
	assert.NoError(t, ValidateHours(NullHours()))
	assert.NoError(t, ValidateHours(HoursOf(0)))
	assert.NoError(t, ValidateHours(HoursOf(40)))

	err := ValidateHours(HoursOf(-1))
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "hours", vErr.Field)
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"0", true},
		{"120", true},
		{"42.50", true},
		{"9999999999.99", true},
		{"-0.01", false},
		{"1.005", false},
		{"10000000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := decimal.NewNullDecimal(decimal.RequireFromString(tt.in))
			err := ValidateAmount("cost", d)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsValidation(err), "got %v", err)
			}
		})
	}

	assert.NoError(t, ValidateAmount("cost", decimal.NullDecimal{}), "unknown price is allowed")
}

func TestNormalizeStaffingRole(t *testing.T) {
	key, err := NormalizeStaffingRole(" US ", " Solution Architect ", 3)
	require.NoError(t, err)
	assert.Equal(t, NaturalKey{Country: "US", Role: "Solution Architect", Band: 3}, key)
	assert.Equal(t, "US/Solution Architect/3", key.String())

	_, err = NormalizeStaffingRole("US", "Architect", 0)
	assert.NoError(t, err, "band zero is allowed")

	tests := []struct {
		country, role string
		band          int64
		field         string
	}{
		{"", "Architect", 1, "country"},
		{strings.Repeat("x", 51), "Architect", 1, "country"},
		{"US", " ", 1, "role"},
		{"US", strings.Repeat("x", 101), 1, "role"},
		{"US", "Architect", -1, "band"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := NormalizeStaffingRole(tt.country, tt.role, tt.band)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRequireName(t *testing.T) {
	name, err := RequireName("name", "  Cloud Migration ")
	require.NoError(t, err)
	assert.Equal(t, "Cloud Migration", name)

	_, err = RequireName("name", "")
	assert.True(t, IsValidation(err))
	_, err = RequireName("name", strings.Repeat("n", 256))
	assert.True(t, IsValidation(err))
}

func TestErrorKinds(t *testing.T) {
	// GIVEN: Errors wrapped the way the stores return them
	notFound := fmt.Errorf("loading role: %w", NotFound(KindStaffingRole, "r-1"))
	conflict := fmt.Errorf("inserting: %w", Conflict(KindRateCard, "r-1"))
	invalid := Invalid("band", "must not be negative, got %d", -2)

	// THEN: Each is recognized by exactly one helper
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsConflict(notFound))
	assert.True(t, IsConflict(conflict))
	assert.False(t, IsValidation(conflict))
	assert.True(t, IsValidation(invalid))
	assert.False(t, IsClientError(fmt.Errorf("disk full")))
	assert.True(t, IsClientError(notFound))

	assert.Equal(t, "staffing role r-1 not found", NotFound(KindStaffingRole, "r-1").Error())
	assert.Equal(t, "rate card already exists for r-1", Conflict(KindRateCard, "r-1").Error())
	assert.Equal(t, "invalid band: must not be negative, got -2", invalid.Error())
}

func TestHours(t *testing.T) {
	assert.Nil(t, NullHours().Ptr())
	assert.Equal(t, "null", NullHours().String())

	h := HoursOf(8)
	require.NotNil(t, h.Ptr())
	assert.Equal(t, int64(8), *h.Ptr())
	assert.Equal(t, h, HoursFromPtr(h.Ptr()))
	assert.Equal(t, NullHours(), HoursFromPtr(nil))
}
