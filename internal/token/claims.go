package token

import (
	"github.com/jmespath/go-jmespath"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// claimDocument flattens registered and private claims into one map so
// jmespath expressions can address either. Private claims win on collision;
// the registered ones here are only informational.
func claimDocument(tok jwt.Token) map[string]any {
	doc := map[string]any{
		"sub": tok.Subject(),
		"iss": tok.Issuer(),
		"aud": tok.Audience(),
	}
	for k, v := range tok.PrivateClaims() {
		doc[k] = v
	}
	return doc
}

// searchString evaluates a jmespath expression against the claim document
// and returns the result when it is a non-empty string. A plain key is the
// common case; nested expressions (e.g. `org.tenant`) work too.
func searchString(expr string, doc map[string]any) string {
	if expr == "" {
		return ""
	}
	out, err := jmespath.Search(expr, doc)
	if err != nil {
		// Fall back to a literal key lookup for claim names that are not
		// valid jmespath identifiers unless quoted.
		if v, ok := doc[expr]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	if s, ok := out.(string); ok {
		return s
	}
	return ""
}
