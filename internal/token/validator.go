// Package token verifies bearer tokens against a tenant's signing key set
// and derives the caller's tenant identity from validated claims.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrKeyNotFound        = errors.New("no matching signing key")
	ErrSignatureInvalid   = errors.New("signature invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrAudienceMismatch   = errors.New("audience mismatch")
	ErrMissingTenantClaim = errors.New("tenant claim missing")
)

// Identity is the only trusted source of tenant scope downstream. It is
// derived once per request from validated claims and never mutated.
type Identity struct {
	TenantID   string
	TenantName string // filled from tenant config, not from claims
	Role       string
	Subject    string
}

// allowedAlgs is the explicit signature algorithm allow-list. "none" and the
// HMAC family are rejected: a symmetric alg against a public JWKS would let
// the key material double as a signing secret.
var allowedAlgs = map[jwa.SignatureAlgorithm]struct{}{
	jwa.RS256: {},
	jwa.RS384: {},
	jwa.RS512: {},
	jwa.ES256: {},
	jwa.ES384: {},
	jwa.ES512: {},
}

// Validator checks signature, expiry, audience, and tenant claims.
type Validator struct {
	skew        time.Duration
	tenantClaim string // jmespath into the claim set
	roleClaim   string
	now         func() time.Time
}

type Option func(*Validator)

// WithClockSkew sets an explicit, bounded expiry tolerance. Zero means the
// exp claim is checked exactly against UTC now.
func WithClockSkew(d time.Duration) Option {
	return func(v *Validator) { v.skew = d }
}

// WithClaimPaths overrides the jmespath expressions used to locate the
// tenant id and role claims.
func WithClaimPaths(tenantID, role string) Option {
	return func(v *Validator) {
		if tenantID != "" {
			v.tenantClaim = tenantID
		}
		if role != "" {
			v.roleClaim = role
		}
	}
}

func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		tenantClaim: `"custom:tenantId"`,
		roleClaim:   `"custom:userRole"`,
		now:         time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate verifies raw against set and returns the tenant identity. Any
// failure returns a typed error and a zero Identity; errors are terminal
// for the request and never retried here.
func (v *Validator) Validate(ctx context.Context, raw []byte, expectedAudience string, set jwk.Set) (Identity, error) {
	msg, err := jws.Parse(raw)
	if err != nil || len(msg.Signatures()) == 0 {
		return Identity{}, fmt.Errorf("%w: malformed token", ErrSignatureInvalid)
	}
	hdr := msg.Signatures()[0].ProtectedHeaders()

	kid := hdr.KeyID()
	if kid == "" {
		return Identity{}, fmt.Errorf("%w: no kid header", ErrKeyNotFound)
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return Identity{}, fmt.Errorf("%w: kid=%s", ErrKeyNotFound, kid)
	}

	alg := hdr.Algorithm()
	if _, ok := allowedAlgs[alg]; !ok {
		return Identity{}, fmt.Errorf("%w: algorithm %q not allowed", ErrSignatureInvalid, alg)
	}
	if _, err := jws.Verify(raw, jws.WithKey(alg, key)); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	// Claims are decoded only after the signature holds.
	tok, err := jwt.Parse(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: claims unparseable", ErrSignatureInvalid)
	}

	exp := tok.Expiration()
	if exp.IsZero() || v.now().UTC().After(exp.Add(v.skew)) {
		return Identity{}, ErrTokenExpired
	}

	if !audienceMatches(tok.Audience(), expectedAudience) {
		return Identity{}, ErrAudienceMismatch
	}

	claims := claimDocument(tok)
	tenantID := searchString(v.tenantClaim, claims)
	if tenantID == "" {
		return Identity{}, ErrMissingTenantClaim
	}
	return Identity{
		TenantID: tenantID,
		Role:     searchString(v.roleClaim, claims),
		Subject:  tok.Subject(),
	}, nil
}

func audienceMatches(aud []string, expected string) bool {
	for _, a := range aud {
		if a == expected {
			return true
		}
	}
	return false
}
