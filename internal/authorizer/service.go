// Package authorizer composes token validation, tenant configuration,
// credential brokering, and policy shaping into a single gateway decision.
package authorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tenantgate/internal/broker"
	"tenantgate/internal/keyset"
	"tenantgate/internal/policy"
	"tenantgate/internal/tenantconfig"
	"tenantgate/internal/token"
	"tenantgate/internal/usage"
)

var (
	ErrMissingToken = errors.New("authorization token missing")
	ErrUsageLimit   = errors.New("tenant token limit exceeded")
	ErrPolicyDenied = errors.New("authorization policy denied request")
)

// AuthRequest is the typed authorizer invocation from the gateway.
type AuthRequest struct {
	Token     string `json:"authorizationToken"`
	MethodArn string `json:"methodArn"`
}

// CredentialBroker is the slice of broker.Broker the service needs.
type CredentialBroker interface {
	AssumeScopedRole(ctx context.Context, roleArn string, tags []broker.Tag, durationSeconds int32) (broker.Credentials, error)
}

// Config carries the service's fixed wiring.
type Config struct {
	IssuerURL          string
	Audience           string
	AssumeRoleArn      string
	SessionDurationSec int32
	WildcardResource   bool
}

// Service orchestrates one authorizer invocation. It holds no per-request
// state; everything mutable lives in the key set cache.
type Service struct {
	cfg       Config
	keys      *keyset.Cache
	validator *token.Validator
	tenants   tenantconfig.Provider
	broker    CredentialBroker
	usage     *usage.Store // optional token budget gate
	gate      *RegoGate    // optional rego gate
	log       *zap.SugaredLogger
	metrics   *Metrics
}

func NewService(cfg Config, keys *keyset.Cache, validator *token.Validator, tenants tenantconfig.Provider, cb CredentialBroker, log *zap.SugaredLogger, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:       cfg,
		keys:      keys,
		validator: validator,
		tenants:   tenants,
		broker:    cb,
		log:       log,
		metrics:   NopMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type ServiceOption func(*Service)

// WithUsageGate enables the per-tenant token budget check.
func WithUsageGate(store *usage.Store) ServiceOption {
	return func(s *Service) { s.usage = store }
}

// WithRegoGate enables the rego authorization gate.
func WithRegoGate(gate *RegoGate) ServiceOption {
	return func(s *Service) { s.gate = gate }
}

// WithMetrics wires decision counters.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Authorize produces the decision for one request. Every failure collapses
// to a deny on the method ARN; the returned error carries the detail for
// server-side logging and is never surfaced to the caller.
func (s *Service) Authorize(ctx context.Context, req AuthRequest) (policy.Decision, error) {
	decision, err := s.authorize(ctx, req)
	if err != nil {
		s.log.Warnw("authorization denied", "reason", err, "methodArn", req.MethodArn)
		s.metrics.Denied()
		return policy.Deny(req.MethodArn), err
	}
	s.metrics.Allowed()
	return decision, nil
}

func (s *Service) authorize(ctx context.Context, req AuthRequest) (policy.Decision, error) {
	raw, err := bearerToken(req.Token)
	if err != nil {
		return policy.Decision{}, err
	}

	set, err := s.keys.Get(ctx, s.cfg.IssuerURL)
	if err != nil {
		return policy.Decision{}, err
	}

	identity, err := s.validator.Validate(ctx, []byte(raw), s.cfg.Audience, set)
	if err != nil {
		return policy.Decision{}, err
	}

	tc, err := s.tenants.Get(ctx, identity.TenantID)
	if err != nil {
		return policy.Decision{}, err
	}
	identity.TenantName = tc.TenantName

	if s.usage != nil && s.usage.Exceeded(ctx, identity.TenantID, tc.InputTokens, tc.OutputTokens) {
		return policy.Decision{}, fmt.Errorf("%w: tenant %s", ErrUsageLimit, identity.TenantID)
	}

	if s.gate != nil {
		allowed, err := s.gate.Allow(ctx, map[string]any{
			"tenant_id":  identity.TenantID,
			"role":       identity.Role,
			"method_arn": req.MethodArn,
		})
		if err != nil || !allowed {
			return policy.Decision{}, fmt.Errorf("%w: tenant %s role %q", ErrPolicyDenied, identity.TenantID, identity.Role)
		}
	}

	tags := []broker.Tag{
		{Name: "KnowledgeBaseId", Value: tc.KnowledgeBaseID},
		{Name: "TenantID", Value: identity.TenantID},
	}
	creds, err := s.broker.AssumeScopedRole(ctx, s.cfg.AssumeRoleArn, tags, s.cfg.SessionDurationSec)
	if err != nil {
		return policy.Decision{}, err
	}

	resource := req.MethodArn
	if s.cfg.WildcardResource {
		resource = policy.WildcardMethodArn(req.MethodArn)
	}
	decision := policy.Allow(identity.TenantID, resource, map[string]string{
		"tenant_id":             identity.TenantID,
		"tenant_name":           identity.TenantName,
		"knowledge_base_id":     tc.KnowledgeBaseID,
		"aws_access_key_id":     creds.AccessKeyID,
		"aws_secret_access_key": creds.SecretAccessKey,
		"aws_session_token":     creds.SessionToken,
	})
	decision.UsageIdentifierKey = tc.APIKey
	return decision, nil
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrMissingToken
	}
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
		return "", fmt.Errorf("%w: header must be `Bearer <token>`", ErrMissingToken)
	}
	return strings.TrimSpace(tok), nil
}
