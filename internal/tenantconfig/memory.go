package tenantconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

type memProvider struct {
	log      *zap.SugaredLogger
	byTenant map[string]TenantConfig
}

// NewMemoryProviderFromEnv builds an in-memory provider seeded from
// TENANT_CONFIG_SEED_JSON. Dev only; an empty seed resolves nothing, which
// denies every request.
func NewMemoryProviderFromEnv(log *zap.SugaredLogger) Provider {
	p := &memProvider{log: log, byTenant: map[string]TenantConfig{}}
	seed := os.Getenv("TENANT_CONFIG_SEED_JSON")
	if seed != "" {
		var entries []struct {
			TenantID string `json:"tenantId"`
			TenantConfig
		}
		if err := json.Unmarshal([]byte(seed), &entries); err != nil {
			log.Warnw("tenant config seed parse", "err", err)
		}
		for _, e := range entries {
			p.byTenant[e.TenantID] = e.TenantConfig
		}
	}
	return p
}

// NewStaticProvider wraps a fixed mapping. Used by tests.
func NewStaticProvider(byTenant map[string]TenantConfig) Provider {
	return &memProvider{byTenant: byTenant}
}

func (m *memProvider) Get(ctx context.Context, tenantID string) (TenantConfig, error) {
	if tc, ok := m.byTenant[tenantID]; ok {
		return tc, nil
	}
	return TenantConfig{}, fmt.Errorf("%w: unknown tenant %s", ErrUnavailable, tenantID)
}
