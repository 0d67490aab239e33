package broker

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionNameOrderIndependent(t *testing.T) {
	a := SessionName([]Tag{{"TenantID", "acme"}, {"KnowledgeBaseId", "kb-123"}})
	b := SessionName([]Tag{{"KnowledgeBaseId", "kb-123"}, {"TenantID", "acme"}})
	assert.Equal(t, a, b)
}

func TestSessionNameStableAcrossCalls(t *testing.T) {
	tags := []Tag{{"TenantID", "acme"}}
	assert.Equal(t, SessionName(tags), SessionName(tags))
}

func TestSessionNameDistinguishesTagSets(t *testing.T) {
	seen := map[string]string{}
	cases := [][]Tag{
		{{"TenantID", "acme"}},
		{{"TenantID", "acme2"}},
		{{"TenantID", "acm"}, {"e", ""}},
		{{"TenantID", "acme"}, {"KnowledgeBaseId", "kb-1"}},
		{{"TenantID", "acme"}, {"KnowledgeBaseId", "kb-2"}},
		{{"tenantid", "acme"}},
		{},
	}
	for _, tags := range cases {
		name := SessionName(tags)
		prev, dup := seen[name]
		assert.False(t, dup, "collision between %v and %s", tags, prev)
		seen[name] = fmt.Sprintf("%v", tags)
	}
}

func TestSessionNameDelimitersInValuesDoNotCollide(t *testing.T) {
	// Tag boundaries must survive "=" and "-" appearing inside names or
	// values; a flat joined serialization would conflate these sets.
	a := SessionName([]Tag{{"a", "b"}, {"c", "d"}})
	b := SessionName([]Tag{{"a", "b-c=d"}})
	assert.NotEqual(t, a, b)

	c := SessionName([]Tag{{"a=b", "c"}})
	d := SessionName([]Tag{{"a", "b=c"}})
	assert.NotEqual(t, c, d)

	e := SessionName([]Tag{{"TenantID", "acme-kb"}, {"KnowledgeBaseId", "1"}})
	f := SessionName([]Tag{{"TenantID", "acme"}, {"KnowledgeBaseId", "kb-1"}})
	assert.NotEqual(t, e, f)
}

func TestSessionNameBoundedAndWellFormed(t *testing.T) {
	name := SessionName([]Tag{{"TenantID", "a-very-long-tenant-identifier-that-would-overflow-session-name-limits"}})
	assert.Len(t, name, sessionNameLen)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), name)
}

func TestSessionNameDoesNotMutateInput(t *testing.T) {
	tags := []Tag{{"b", "2"}, {"a", "1"}}
	SessionName(tags)
	assert.Equal(t, []Tag{{"b", "2"}, {"a", "1"}}, tags)
}
