package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TENANTGATE_CONFIG_FILE", "")
	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "tenantgate-gateway", cfg.Audience)
	assert.Equal(t, 6*time.Hour, cfg.JWKSTTL)
	assert.Equal(t, time.Duration(0), cfg.ClockSkew)
	assert.Equal(t, int32(900), cfg.SessionDurationSec)
	assert.Equal(t, `"custom:tenantId"`, cfg.TenantIDClaim)
	assert.Equal(t, "tenant_analytics", cfg.QueryDatabase)
	assert.False(t, cfg.WildcardResource)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OIDC_ISSUER", "https://issuer.example.com")
	t.Setenv("OIDC_AUDIENCE", "client-1")
	t.Setenv("AUTH_CLOCK_SKEW_SEC", "30")
	t.Setenv("SESSION_DURATION_SEC", "1800")
	t.Setenv("WILDCARD_RESOURCE", "true")

	cfg := Load()
	assert.Equal(t, "https://issuer.example.com", cfg.IssuerURL)
	assert.Equal(t, "client-1", cfg.Audience)
	assert.Equal(t, 30*time.Second, cfg.ClockSkew)
	assert.Equal(t, int32(1800), cfg.SessionDurationSec)
	assert.True(t, cfg.WildcardResource)
}

func TestLoadClampsExcessiveClockSkew(t *testing.T) {
	t.Setenv("AUTH_CLOCK_SKEW_SEC", "3600")
	cfg := Load()
	assert.Equal(t, maxClockSkew, cfg.ClockSkew)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenantgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"issuer_url: https://overlay-issuer.example.com\naudience: overlay-client\nquery_database: overlay_db\n",
	), 0o600))
	t.Setenv("TENANTGATE_CONFIG_FILE", path)

	cfg := Load()
	assert.Equal(t, "https://overlay-issuer.example.com", cfg.IssuerURL)
	assert.Equal(t, "overlay-client", cfg.Audience)
	assert.Equal(t, "overlay_db", cfg.QueryDatabase)
}

func TestEnvWinsOverOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenantgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("issuer_url: https://overlay.example.com\n"), 0o600))
	t.Setenv("TENANTGATE_CONFIG_FILE", path)
	t.Setenv("OIDC_ISSUER", "https://env.example.com")

	cfg := Load()
	assert.Equal(t, "https://env.example.com", cfg.IssuerURL)
}

func TestLoadMissingOverlayFileIsIgnored(t *testing.T) {
	t.Setenv("TENANTGATE_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	cfg := Load()
	assert.Equal(t, "dev", cfg.Env)
}
