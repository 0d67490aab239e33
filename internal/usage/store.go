// Package usage tracks per-tenant token consumption against configured
// budgets. Metering services write totals; the authorizer reads them as a
// gate before allowing a request.
package usage

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix   = "tenant:usage:"
	fieldInput  = "total_input_tokens"
	fieldOutput = "total_output_tokens"
)

// Totals are a tenant's accumulated token counts.
type Totals struct {
	InputTokens  int64
	OutputTokens int64
}

// Store keeps usage counters in Redis.
type Store struct {
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewStore(rdb *redis.Client, log *zap.SugaredLogger) *Store {
	return &Store{rdb: rdb, log: log}
}

// Add accumulates consumed tokens for a tenant.
func (s *Store) Add(ctx context.Context, tenantID string, inputTokens, outputTokens int64) error {
	key := keyPrefix + tenantID
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, fieldInput, inputTokens)
	pipe.HIncrBy(ctx, key, fieldOutput, outputTokens)
	_, err := pipe.Exec(ctx)
	return err
}

// Totals returns the accumulated counters; a tenant with no recorded usage
// reads as zero.
func (s *Store) Totals(ctx context.Context, tenantID string) (Totals, error) {
	vals, err := s.rdb.HGetAll(ctx, keyPrefix+tenantID).Result()
	if err != nil {
		return Totals{}, err
	}
	return Totals{
		InputTokens:  parseCount(vals[fieldInput]),
		OutputTokens: parseCount(vals[fieldOutput]),
	}, nil
}

// Exceeded reports whether the tenant is over either budget. Budgets of
// zero are not gated. A store error while a budget is configured counts as
// exceeded: when usage cannot be read, the request is not allowed through.
func (s *Store) Exceeded(ctx context.Context, tenantID string, inputBudget, outputBudget int64) bool {
	if inputBudget <= 0 && outputBudget <= 0 {
		return false
	}
	totals, err := s.Totals(ctx, tenantID)
	if err != nil {
		s.log.Errorw("usage read failed, failing closed", "tenant", tenantID, "err", err)
		return true
	}
	if inputBudget > 0 && totals.InputTokens > inputBudget {
		return true
	}
	if outputBudget > 0 && totals.OutputTokens > outputBudget {
		return true
	}
	return false
}

func parseCount(v string) int64 {
	if v == "" {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}
