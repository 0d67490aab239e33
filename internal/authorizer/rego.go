package authorizer

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// RegoGate evaluates an operator-supplied rego module before credentials
// are brokered. The module's `data.tenantgate.authz.allow` rule decides;
// an evaluation error is a deny.
type RegoGate struct {
	query rego.PreparedEvalQuery
}

// NewRegoGateFromFile loads and prepares the module at path.
func NewRegoGateFromFile(ctx context.Context, path string) (*RegoGate, error) {
	mod, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rego module: %w", err)
	}
	q, err := rego.New(
		rego.Query("data.tenantgate.authz.allow"),
		rego.Module("authz.rego", string(mod)),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare rego module: %w", err)
	}
	return &RegoGate{query: q}, nil
}

// Allow evaluates the gate for one request.
func (g *RegoGate) Allow(ctx context.Context, input map[string]any) (bool, error) {
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	return rs.Allowed(), nil
}
