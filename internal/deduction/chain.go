package deduction

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchConcurrency = 8

// ChainConfig controls provider selection and the result cache. The cache
// instance is owned by the chain, constructor-injected sizing and all, so
// there is no process-wide singleton to contaminate tests.
type ChainConfig struct {
	FallbackEnabled  bool
	CacheSize        int
	CacheTTL         time.Duration
	BatchConcurrency int
}

// Chain is the single calculation entry point. It tries, in order: the
// short-lived result cache, the remote authority, and the local fallback
// calculator when the authority is unreachable or disabled.
type Chain struct {
	remote   DeductionProvider // nil when the authority is disabled
	fallback DeductionProvider
	cache    *resultCache
	cfg      ChainConfig
	log      zerolog.Logger
}

func NewChain(remote, fallback DeductionProvider, cfg ChainConfig, log zerolog.Logger) *Chain {
	return &Chain{
		remote:   remote,
		fallback: fallback,
		cache:    newResultCache(cfg.CacheSize, cfg.CacheTTL),
		cfg:      cfg,
		log:      log,
	}
}

// Calculate resolves one pay event to a deduction result. Remote failures
// are absorbed by the fallback when it is enabled; otherwise they propagate
// to the caller.
func (c *Chain) Calculate(ctx context.Context, event PayEvent) (DeductionResult, error) {
	key := cacheKey(event)
	if cached, ok := c.cache.get(key); ok {
		cached.Source = SourceCache
		return cached, nil
	}

	if c.remote != nil {
		result, err := c.remote.Calculate(ctx, event)
		if err == nil {
			c.cache.put(key, result)
			return result, nil
		}
		if !c.cfg.FallbackEnabled {
			return DeductionResult{}, err
		}
		c.log.Warn().
			Err(err).
			Str("employee_id", event.EmployeeID.String()).
			Str("provider", c.remote.Name()).
			Msg("remote authority failed, recomputing locally")
	} else if !c.cfg.FallbackEnabled {
		return DeductionResult{}, fmt.Errorf("no calculation provider available: authority disabled and fallback disabled")
	}

	result, err := c.fallback.Calculate(ctx, event)
	if err != nil {
		return DeductionResult{}, err
	}
	c.cache.put(key, result)
	return result, nil
}

// CalculateBatch runs per-employee calculations concurrently. Calculations
// are independent and share no mutable state beyond the cache, so the only
// bound needed is a concurrency limit protecting the remote authority.
// Abandoned batches drain through the per-call timeout; results line up with
// the input slice.
func (c *Chain) CalculateBatch(ctx context.Context, events []PayEvent) ([]DeductionResult, error) {
	limit := c.cfg.BatchConcurrency
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}

	results := make([]DeductionResult, len(events))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, event := range events {
		i, event := i, event
		g.Go(func() error {
			result, err := c.Calculate(ctx, event)
			if err != nil {
				return fmt.Errorf("employee %s: %w", event.EmployeeID, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CacheLen reports the number of live cache entries. Used by tests and
// operational logging.
func (c *Chain) CacheLen() int {
	return c.cache.len()
}
