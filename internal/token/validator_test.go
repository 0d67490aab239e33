package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAudience = "app-client-1"

// newSigningKey generates an RSA signing key with the given kid.
func newSigningKey(t *testing.T, kid string) jwk.Key {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))
	return key
}

// keySetFor builds a jwk.Set holding the public halves of the given keys.
func keySetFor(t *testing.T, keys ...jwk.Key) jwk.Set {
	t.Helper()
	set := jwk.NewSet()
	for _, k := range keys {
		pub, err := k.PublicKey()
		require.NoError(t, err)
		require.NoError(t, set.AddKey(pub))
	}
	return set
}

// baseClaims returns a token that passes every check, for tests to mutate.
func baseClaims(t *testing.T) jwt.Token {
	t.Helper()
	tok := jwt.New()
	require.NoError(t, tok.Set(jwt.SubjectKey, "user-1"))
	require.NoError(t, tok.Set(jwt.AudienceKey, testAudience))
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	require.NoError(t, tok.Set("custom:tenantId", "acme"))
	require.NoError(t, tok.Set("custom:userRole", "analyst"))
	return tok
}

func sign(t *testing.T, tok jwt.Token, key jwk.Key) []byte {
	t.Helper()
	raw, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)
	return raw
}

func TestValidateSuccess(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	raw := sign(t, baseClaims(t), key)

	id, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	require.NoError(t, err)
	assert.Equal(t, "acme", id.TenantID)
	assert.Equal(t, "analyst", id.Role)
	assert.Equal(t, "user-1", id.Subject)
	assert.Empty(t, id.TenantName, "tenant name comes from config, not claims")
}

func TestValidateUnknownKeyID(t *testing.T) {
	signer := newSigningKey(t, "kid-rotated-out")
	set := keySetFor(t, newSigningKey(t, "kid-current"))
	raw := sign(t, baseClaims(t), signer)

	id, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Zero(t, id)
}

func TestValidateForgedSignature(t *testing.T) {
	// Same kid, different private key: the signature must not verify.
	honest := newSigningKey(t, "kid-1")
	forger := newSigningKey(t, "kid-1")
	set := keySetFor(t, honest)
	raw := sign(t, baseClaims(t), forger)

	id, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.Zero(t, id)
}

func TestValidateRejectsSymmetricAlgorithm(t *testing.T) {
	// An HS256 token reusing a known kid must be rejected by the algorithm
	// allow-list before any verification is attempted.
	rsaKey := newSigningKey(t, "kid-1")
	set := keySetFor(t, rsaKey)

	hmacKey, err := jwk.FromRaw([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, hmacKey.Set(jwk.KeyIDKey, "kid-1"))
	raw, err := jwt.Sign(baseClaims(t), jwt.WithKey(jwa.HS256, hmacKey))
	require.NoError(t, err)

	id, verr := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, verr, ErrSignatureInvalid)
	assert.Zero(t, id)
}

func TestValidateGarbageToken(t *testing.T) {
	set := keySetFor(t, newSigningKey(t, "kid-1"))
	_, err := NewValidator().Validate(context.Background(), []byte("not.a.token"), testAudience, set)
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	tok := baseClaims(t)
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(-time.Second)))
	raw := sign(t, tok, key)

	id, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Zero(t, id)
}

func TestValidateClockSkewIsExplicitAndBounded(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	tok := baseClaims(t)
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(-30*time.Second)))
	raw := sign(t, tok, key)

	// No skew configured: the expired token fails.
	_, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Configured skew covers the gap.
	id, err := NewValidator(WithClockSkew(time.Minute)).Validate(context.Background(), raw, testAudience, set)
	require.NoError(t, err)
	assert.Equal(t, "acme", id.TenantID)
}

func TestValidateMissingExpiry(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	tok := jwt.New()
	require.NoError(t, tok.Set(jwt.AudienceKey, testAudience))
	require.NoError(t, tok.Set("custom:tenantId", "acme"))
	raw := sign(t, tok, key)

	_, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAudienceMismatch(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	tok := baseClaims(t)
	require.NoError(t, tok.Set(jwt.AudienceKey, "someone-else"))
	raw := sign(t, tok, key)

	// Signature and expiry are valid; the audience check must still fail.
	id, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
	assert.Zero(t, id)
}

func TestValidateMissingTenantClaim(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	tok := baseClaims(t)
	require.NoError(t, tok.Remove("custom:tenantId"))
	raw := sign(t, tok, key)

	id, err := NewValidator().Validate(context.Background(), raw, testAudience, set)
	assert.ErrorIs(t, err, ErrMissingTenantClaim)
	assert.Zero(t, id)
}

func TestValidateConfigurableClaimPaths(t *testing.T) {
	key := newSigningKey(t, "kid-1")
	set := keySetFor(t, key)
	tok := jwt.New()
	require.NoError(t, tok.Set(jwt.AudienceKey, testAudience))
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	require.NoError(t, tok.Set("org", map[string]any{"tenant": "acme", "role": "admin"}))
	raw := sign(t, tok, key)

	v := NewValidator(WithClaimPaths("org.tenant", "org.role"))
	id, err := v.Validate(context.Background(), raw, testAudience, set)
	require.NoError(t, err)
	assert.Equal(t, "acme", id.TenantID)
	assert.Equal(t, "admin", id.Role)
}
