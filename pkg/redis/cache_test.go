package redis

import (
	"context"
	"testing"
)

func TestCacheKeys(t *testing.T) {
	if got := PriceHistoryKey("AAPL", "2026-01-01", "2026-01-31"); got != "prices:AAPL:2026-01-01:2026-01-31" {
		t.Errorf("unexpected history key: %s", got)
	}

	if got := LatestPriceKey("SPY"); got != "price:latest:SPY" {
		t.Errorf("unexpected latest price key: %s", got)
	}
}

func TestCacheDisabledPassThrough(t *testing.T) {
	cache := NewCache(nil, "folioscope")
	ctx := context.Background()

	var dest string
	found, err := cache.Get(ctx, LatestPriceKey("AAPL"), &dest)
	if err != nil {
		t.Fatalf("Get with disabled redis returned error: %v", err)
	}
	if found {
		t.Error("Get with disabled redis reported a hit")
	}

	if err := cache.Set(ctx, LatestPriceKey("AAPL"), "ignored", TTLShort); err != nil {
		t.Errorf("Set with disabled redis returned error: %v", err)
	}
}
