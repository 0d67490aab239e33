// Package rewriter forces a tenant predicate into analytical query strings
// before they reach a shared store. It is a bounded string transform, not a
// SQL parser: the only structure it understands is the position of
// GROUP BY / ORDER BY / LIMIT relative to an optional WHERE clause.
package rewriter

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyTenantID is returned instead of passing an unfiltered query
	// through. Callers must treat this as a hard authorization failure.
	ErrEmptyTenantID = errors.New("empty tenant id")

	// ErrInvalidTenantID rejects tenant ids that could break out of the
	// interpolated string literal. Only alphanumerics and hyphens pass.
	ErrInvalidTenantID = errors.New("tenant id contains illegal characters")
)

var (
	tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	groupByPattern  = regexp.MustCompile(`(?i)\s+GROUP\s+BY\s+`)
	orderByPattern  = regexp.MustCompile(`(?i)\s+ORDER\s+BY\s+`)
	limitPattern    = regexp.MustCompile(`(?i)\s+LIMIT\s+`)
	wherePattern    = regexp.MustCompile(`(?i)\bWHERE\b`)
)

// Rewrite returns sql with exactly one additional tenant predicate, placed
// before any GROUP BY / ORDER BY / LIMIT clause and combined with AND when
// a WHERE clause already exists.
//
// Rewrite is not idempotent: applying it twice inserts two predicates.
// Single application is the caller's responsibility.
func Rewrite(sql, tenantID string) (string, error) {
	if tenantID == "" {
		return "", ErrEmptyTenantID
	}
	if !tenantIDPattern.MatchString(tenantID) {
		return "", ErrInvalidTenantID
	}

	sql = strings.TrimSpace(sql)
	if strings.HasSuffix(sql, ";") {
		sql = strings.TrimSpace(sql[:len(sql)-1])
	}

	// The earliest post-aggregation clause marks the split point.
	insertPos := len(sql)
	for _, p := range []*regexp.Regexp{groupByPattern, orderByPattern, limitPattern} {
		if loc := p.FindStringIndex(sql); loc != nil && loc[0] < insertPos {
			insertPos = loc[0]
		}
	}

	mainQuery := strings.TrimSpace(sql[:insertPos])
	trailingClauses := strings.TrimSpace(sql[insertPos:])

	predicate := "tenant_id = '" + tenantID + "'"
	if wherePattern.MatchString(mainQuery) {
		mainQuery = mainQuery + " AND " + predicate
	} else {
		mainQuery = mainQuery + " WHERE " + predicate
	}

	if trailingClauses != "" {
		return mainQuery + " " + trailingClauses, nil
	}
	return mainQuery, nil
}
