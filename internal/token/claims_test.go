package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchStringQuotedIdentifier(t *testing.T) {
	doc := map[string]any{"custom:tenantId": "acme"}
	assert.Equal(t, "acme", searchString(`"custom:tenantId"`, doc))
}

func TestSearchStringLiteralFallback(t *testing.T) {
	// A claim name with a colon is not a bare jmespath identifier; the
	// literal key lookup covers configs that omit the quoting.
	doc := map[string]any{"custom:tenantId": "acme"}
	assert.Equal(t, "acme", searchString("custom:tenantId", doc))
}

func TestSearchStringNested(t *testing.T) {
	doc := map[string]any{"org": map[string]any{"tenant": "acme"}}
	assert.Equal(t, "acme", searchString("org.tenant", doc))
}

func TestSearchStringAbsentOrNonString(t *testing.T) {
	doc := map[string]any{"n": 42}
	assert.Empty(t, searchString("missing", doc))
	assert.Empty(t, searchString("n", doc))
	assert.Empty(t, searchString("", doc))
}
