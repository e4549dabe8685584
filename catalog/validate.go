package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxAmount is the exclusive upper bound of a DECIMAL(12,2) column.
var maxAmount = decimal.New(1, 10)

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a UUID and returns it in canonical form.
func ValidateID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", Invalid(field, "must not be empty")
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", Invalid(field, "%q is not a valid identifier", id)
	}
	return u.String(), nil
}

// ValidateHours rejects negative hour counts. Unspecified hours are valid.
func ValidateHours(h Hours) error {
	if h.Valid && h.Value < 0 {
		return Invalid("hours", "must not be negative, got %d", h.Value)
	}
	return nil
}

// ValidateAmount checks an optional price: non-negative, at most two
// fractional digits and within DECIMAL(12,2).
func ValidateAmount(field string, d decimal.NullDecimal) error {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	switch {
	case v.IsNegative():
		return Invalid(field, "must not be negative, got %s", v)
	case !v.Equal(v.Round(2)):
		return Invalid(field, "at most two decimal places allowed, got %s", v)
	case v.GreaterThanOrEqual(maxAmount):
		return Invalid(field, "must be below %s, got %s", maxAmount, v)
	}
	return nil
}

// NormalizeStaffingRole trims the natural key and validates it.
func NormalizeStaffingRole(country, role string, band int64) (NaturalKey, error) {
	key := NaturalKey{
		Country: strings.TrimSpace(country),
		Role:    strings.TrimSpace(role),
		Band:    band,
	}
	switch {
	case key.Country == "":
		return key, Invalid("country", "must not be empty")
	case len(key.Country) > 50:
		return key, Invalid("country", "at most 50 characters")
	case key.Role == "":
		return key, Invalid("role", "must not be empty")
	case len(key.Role) > 100:
		return key, Invalid("role", "at most 100 characters")
	case key.Band < 0:
		return key, Invalid("band", "must not be negative, got %d", key.Band)
	}
	return key, nil
}

// RequireName validates a mandatory display name.
func RequireName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid(field, "must not be empty")
	}
	if len(name) > 255 {
		return "", Invalid(field, "at most 255 characters")
	}
	return name, nil
}
