// Package policy shapes gateway authorization decisions. It is a pure
// transform: no I/O, no retries, no state.
package policy

import (
	"strings"
)

type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Decision is the allow/deny outcome handed back to the calling gateway.
// The Context map is the only channel for propagating tenant identity and
// scoped credentials downstream; it must never carry the raw bearer token.
type Decision struct {
	Effect             Effect
	PrincipalID        string
	ResourceArn        string
	Context            map[string]string
	UsageIdentifierKey string
}

// Allow builds an allow decision for exactly the given resource.
func Allow(principalID, resourceArn string, context map[string]string) Decision {
	return Decision{
		Effect:      EffectAllow,
		PrincipalID: principalID,
		ResourceArn: resourceArn,
		Context:     context,
	}
}

// Deny builds a deny decision. It carries no principal and no context:
// deny decisions may be logged or cached by the gateway, so nothing
// tenant-derived may ride on them.
func Deny(resourceArn string) Decision {
	return Decision{
		Effect:      EffectDeny,
		ResourceArn: resourceArn,
	}
}

// WildcardMethodArn widens a method ARN's stage, verb, and path segments to
// "*" for callers that do not need per-method scoping. The region, account,
// and API id are preserved, so the result never covers more than the single
// gateway instance the decision was computed for. Malformed input is
// returned unchanged.
func WildcardMethodArn(methodArn string) string {
	// arn:aws:execute-api:{region}:{account}:{apiId}/{stage}/{verb}/{path}
	parts := strings.SplitN(methodArn, ":", 6)
	if len(parts) != 6 {
		return methodArn
	}
	apiID, _, found := strings.Cut(parts[5], "/")
	if !found || apiID == "" {
		return methodArn
	}
	parts[5] = apiID + "/*/*/*"
	return strings.Join(parts, ":")
}
