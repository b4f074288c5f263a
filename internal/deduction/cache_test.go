package deduction

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetPut(t *testing.T) {
	cache := newResultCache(10, time.Minute)
	result := DeductionResult{CPP: dec("110.99"), TaxYear: 2025, Source: SourceAuthority}

	_, ok := cache.get("k1")
	assert.False(t, ok)

	cache.put("k1", result)
	got, ok := cache.get("k1")
	require.True(t, ok)
	assert.Equal(t, result, got)
	assert.Equal(t, 1, cache.len())
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := newResultCache(10, 10*time.Minute)
	clock := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.put("k1", DeductionResult{TaxYear: 2025})

	clock = clock.Add(10 * time.Minute)
	_, ok := cache.get("k1")
	assert.True(t, ok, "entry at exactly ttl is still live")

	clock = clock.Add(time.Second)
	_, ok = cache.get("k1")
	assert.False(t, ok, "entry beyond ttl is gone")
	assert.Equal(t, 0, cache.len())
}

func TestCacheEvictsOldestInserted(t *testing.T) {
	cache := newResultCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		cache.put(fmt.Sprintf("k%d", i), DeductionResult{TaxYear: 2025})
	}
	// Touch k0 with a read; insertion order, not recency, decides eviction.
	_, ok := cache.get("k0")
	require.True(t, ok)

	cache.put("k3", DeductionResult{TaxYear: 2025})

	_, ok = cache.get("k0")
	assert.False(t, ok, "oldest inserted entry should be evicted")
	for _, key := range []string{"k1", "k2", "k3"} {
		_, ok := cache.get(key)
		assert.True(t, ok, "%s should survive", key)
	}
	assert.Equal(t, 3, cache.len())
}

func TestCachePutExistingKeyUpdatesInPlace(t *testing.T) {
	cache := newResultCache(2, time.Minute)

	cache.put("k1", DeductionResult{CPP: dec("1.00")})
	cache.put("k2", DeductionResult{CPP: dec("2.00")})
	cache.put("k1", DeductionResult{CPP: dec("9.00")})

	got, ok := cache.get("k1")
	require.True(t, ok)
	assert.Equal(t, "9.00", got.CPP.StringFixed(2))
	_, ok = cache.get("k2")
	assert.True(t, ok, "rewriting an existing key must not evict anything")
}

func TestCacheDefaultsOnZeroConfig(t *testing.T) {
	cache := newResultCache(0, 0)
	assert.Equal(t, DefaultCacheSize, cache.capacity)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}

func TestCacheKeySensitivity(t *testing.T) {
	base := testEvent("2000.00", FrequencyBiweekly)
	baseKey := cacheKey(base)

	assert.Equal(t, baseKey, cacheKey(base), "key is deterministic")

	ytdChanged := base
	ytdChanged.YTD.CPPContributed = dec("100")
	assert.NotEqual(t, baseKey, cacheKey(ytdChanged), "ytd change must miss")

	grossChanged := base
	grossChanged.GrossPay = base.GrossPay.Add(decimal.NewFromInt(1))
	assert.NotEqual(t, baseKey, cacheKey(grossChanged), "gross change must miss")

	claimsChanged := base
	claimsChanged.Claims.FederalAdditional = dec("5000")
	assert.NotEqual(t, baseKey, cacheKey(claimsChanged), "claims change must miss")

	dateChanged := base
	dateChanged.PayDate = base.PayDate.AddDate(0, 0, 14)
	assert.NotEqual(t, baseKey, cacheKey(dateChanged), "pay date change must miss")
}
