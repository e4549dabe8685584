/*
Package auth issues and verifies the bearer tokens of the configurator API.

PURPOSE:
  Callers authenticate with an HS256 JWT. The token names the user and
  carries the three roles of the catalog application. Reads need any
  valid token; writes need the admin role.

CLAIMS:
  sub    user id
  name   display name
  roles  {is_admin, is_solution_architect, has_catalog_access}

DISABLED MODE:
  With auth disabled every request runs as Anonymous, an admin identity,
  so a local database can be edited without minting tokens.

SEE ALSO:
  - middleware.go: HTTP middleware
  - cmd/server: "configurator token" mints development tokens
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Roles are the permission flags of a user.
type Roles struct {
	IsAdmin             bool `json:"is_admin"`
	IsSolutionArchitect bool `json:"is_solution_architect"`
	HasCatalogAccess    bool `json:"has_catalog_access"`
}

// Identity is the authenticated caller.
type Identity struct {
	Subject string
	Name    string
	Roles   Roles
}

// Anonymous is used for every request when auth is disabled.
var Anonymous = Identity{
	Subject: "anonymous",
	Name:    "Anonymous",
	Roles:   Roles{IsAdmin: true, IsSolutionArchitect: true, HasCatalogAccess: true},
}

// Claims is the JWT payload.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Roles Roles  `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies tokens with one shared secret.
type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator. issuer may be empty.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for id valid for ttl.
func (a *Authenticator) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.Subject == "" {
		return "", fmt.Errorf("token subject must not be empty")
	}
	now := a.now()
	claims := Claims{
		Name:  id.Name,
		Roles: id.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Parse verifies a token and returns its identity.
func (a *Authenticator) Parse(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: claims.Subject, Name: claims.Name, Roles: claims.Roles}, nil
}

// =============================================================================
// CONTEXT
// =============================================================================

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
