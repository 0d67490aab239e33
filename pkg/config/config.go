// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const maxClockSkew = 5 * time.Minute

type Config struct {
	Env       string
	HTTPAddr  string // authorizer-service
	QueryAddr string // query-service
	UsageAddr string // usage-service

	// Token validation
	IssuerURL     string // identity provider base URL (JWKS discovered at {issuer}/.well-known/jwks.json)
	Audience      string // expected app client id
	JWKSTTL       time.Duration
	ClockSkew     time.Duration // explicit, bounded; 0 means exact exp check
	TenantIDClaim string        // jmespath into the claim set
	RoleClaim     string

	// Credential broker
	AssumeRoleArn      string
	SessionDurationSec int32

	// Collaborators
	ControlPlaneURL string
	RedisURL        string
	DatabaseURL     string

	// Optional rego authorization gate (path to a .rego module)
	RegoModulePath string

	// Query engine
	QueryDatabase string

	// Emit stage/method wildcard resources in allow policies
	WildcardResource bool
}

// fileOverlay mirrors the subset of Config that may come from a YAML file
// (TENANTGATE_CONFIG_FILE). Env vars still win for anything they set.
type fileOverlay struct {
	IssuerURL       string `yaml:"issuer_url"`
	Audience        string `yaml:"audience"`
	AssumeRoleArn   string `yaml:"assume_role_arn"`
	ControlPlaneURL string `yaml:"control_plane_url"`
	TenantIDClaim   string `yaml:"tenant_id_claim"`
	RoleClaim       string `yaml:"role_claim"`
	QueryDatabase   string `yaml:"query_database"`
	RegoModulePath  string `yaml:"rego_module"`
}

func Load() Config {
	_ = godotenv.Load()
	overlay := loadOverlay(os.Getenv("TENANTGATE_CONFIG_FILE"))
	cfg := Config{
		Env:                env("TENANTGATE_ENV", "dev"),
		HTTPAddr:           env("TENANTGATE_HTTP_ADDR", ":8080"),
		QueryAddr:          env("TENANTGATE_QUERY_ADDR", ":8081"),
		UsageAddr:          env("TENANTGATE_USAGE_ADDR", ":8082"),
		IssuerURL:          env("OIDC_ISSUER", overlay.IssuerURL),
		Audience:           env("OIDC_AUDIENCE", fallback(overlay.Audience, "tenantgate-gateway")),
		JWKSTTL:            envDur("JWKS_TTL_SEC", 6*3600) * time.Second,
		ClockSkew:          envDur("AUTH_CLOCK_SKEW_SEC", 0) * time.Second,
		TenantIDClaim:      env("TENANT_ID_CLAIM", fallback(overlay.TenantIDClaim, `"custom:tenantId"`)),
		RoleClaim:          env("TENANT_ROLE_CLAIM", fallback(overlay.RoleClaim, `"custom:userRole"`)),
		AssumeRoleArn:      env("ASSUME_ROLE_ARN", overlay.AssumeRoleArn),
		SessionDurationSec: int32(envInt("SESSION_DURATION_SEC", 900)),
		ControlPlaneURL:    env("CP_API_GW_URL", overlay.ControlPlaneURL),
		RedisURL:           env("REDIS_URL", ""),
		DatabaseURL:        env("DATABASE_URL", ""),
		RegoModulePath:     env("AUTHZ_REGO_MODULE", overlay.RegoModulePath),
		QueryDatabase:      env("QUERY_DATABASE", fallback(overlay.QueryDatabase, "tenant_analytics")),
		WildcardResource:   envBool("WILDCARD_RESOURCE", false),
	}
	if cfg.ClockSkew > maxClockSkew {
		log.Printf("[WARN] AUTH_CLOCK_SKEW_SEC above %s — clamping", maxClockSkew)
		cfg.ClockSkew = maxClockSkew
	}
	if cfg.DatabaseURL == "" && cfg.ControlPlaneURL == "" {
		log.Println("[WARN] neither DATABASE_URL nor CP_API_GW_URL set — using in-memory tenant config for dev")
	}
	return cfg
}

func loadOverlay(path string) fileOverlay {
	var o fileOverlay
	if path == "" {
		return o
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARN] config file %s unreadable: %v", path, err)
		return o
	}
	if err := yaml.Unmarshal(b, &o); err != nil {
		log.Printf("[WARN] config file %s invalid: %v", path, err)
	}
	return o
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
