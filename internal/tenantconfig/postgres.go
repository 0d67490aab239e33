package tenantconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgProvider implements Provider backed by PostgreSQL.
type pgProvider struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresProvider constructs a PostgreSQL-backed tenant config provider.
func NewPostgresProvider(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Provider {
	return &pgProvider{dbPool: dbPool, log: log}
}

// EnsureSchema creates the tenant_config table if it does not already
// exist. Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenant_config (
  tenant_id text PRIMARY KEY,
  api_key text NOT NULL,
  tenant_name text NOT NULL,
  knowledge_base_id text,
  input_tokens bigint NOT NULL DEFAULT 0,
  output_tokens bigint NOT NULL DEFAULT 0,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

// SeedFromEnv ingests initial tenant config rows.
// jsonSeed format (TENANT_CONFIG_SEED_JSON):
// [{"tenantId":"acme","apiKey":"...","tenantName":"Acme","knowledgeBaseId":"kb-1","inputTokens":0,"outputTokens":0}]
func SeedFromEnv(ctx context.Context, dbPool *pgxpool.Pool, jsonSeed string) error {
	if jsonSeed == "" {
		return nil
	}
	var entries []struct {
		TenantID string `json:"tenantId"`
		TenantConfig
	}
	if err := json.Unmarshal([]byte(jsonSeed), &entries); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := dbPool.Exec(ctx, `INSERT INTO tenant_config(tenant_id,api_key,tenant_name,knowledge_base_id,input_tokens,output_tokens)
		  VALUES ($1,$2,$3,$4,$5,$6)
		  ON CONFLICT (tenant_id) DO UPDATE SET api_key=EXCLUDED.api_key,tenant_name=EXCLUDED.tenant_name,knowledge_base_id=EXCLUDED.knowledge_base_id,input_tokens=EXCLUDED.input_tokens,output_tokens=EXCLUDED.output_tokens,updated_at=NOW()`,
			e.TenantID, e.APIKey, e.TenantName, e.KnowledgeBaseID, e.InputTokens, e.OutputTokens); err != nil {
			return fmt.Errorf("seed tenant %s: %w", e.TenantID, err)
		}
	}
	return nil
}

func (p *pgProvider) Get(ctx context.Context, tenantID string) (TenantConfig, error) {
	var tc TenantConfig
	row := p.dbPool.QueryRow(ctx, `SELECT api_key, tenant_name, COALESCE(knowledge_base_id,''), input_tokens, output_tokens FROM tenant_config WHERE tenant_id=$1`, tenantID)
	if err := row.Scan(&tc.APIKey, &tc.TenantName, &tc.KnowledgeBaseID, &tc.InputTokens, &tc.OutputTokens); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantConfig{}, fmt.Errorf("%w: unknown tenant %s", ErrUnavailable, tenantID)
		}
		p.log.Errorw("tenant config query", "tenant", tenantID, "err", err)
		return TenantConfig{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tc, nil
}
