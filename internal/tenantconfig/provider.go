// Package tenantconfig resolves per-tenant configuration: the API key,
// display name, knowledge base binding, and token budgets a request needs
// after its identity has been established.
package tenantconfig

import (
	"context"
	"errors"
)

// ErrUnavailable covers every lookup failure. The authorizer treats it as
// a hard authorization failure, never as a default configuration.
var ErrUnavailable = errors.New("tenant configuration unavailable")

// TenantConfig is one tenant's control-plane record.
type TenantConfig struct {
	APIKey          string `json:"apiKey"`
	TenantName      string `json:"tenantName"`
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	InputTokens     int64  `json:"inputTokens"`  // budget; 0 means not gated
	OutputTokens    int64  `json:"outputTokens"` // budget; 0 means not gated
}

// Provider resolves a tenant id to its configuration.
type Provider interface {
	Get(ctx context.Context, tenantID string) (TenantConfig, error)
}
