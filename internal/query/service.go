// Package query exposes the tenant-scoped query rewriting surface. It only
// produces rewritten query strings; execution belongs to the downstream
// analytical engine.
package query

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tenantgate/internal/rewriter"
)

// ScopedQuery pairs a rewritten query with the database it targets.
type ScopedQuery struct {
	Query    string
	Database string
}

// Service wraps the rewriter with the configured default database.
type Service struct {
	database string
	log      *zap.SugaredLogger
}

func NewService(database string, log *zap.SugaredLogger) *Service {
	return &Service{database: database, log: log}
}

// Scope rewrites sql for tenantID. A missing or malformed tenant id is a
// hard failure; an unfiltered query is never returned.
func (s *Service) Scope(ctx context.Context, sql, tenantID string) (ScopedQuery, error) {
	out, err := rewriter.Rewrite(sql, tenantID)
	if err != nil {
		if errors.Is(err, rewriter.ErrEmptyTenantID) || errors.Is(err, rewriter.ErrInvalidTenantID) {
			s.log.Warnw("query rejected", "reason", err)
		}
		return ScopedQuery{}, err
	}
	return ScopedQuery{Query: out, Database: s.database}, nil
}
