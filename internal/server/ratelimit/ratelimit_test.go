package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLimiter returns a limiter on a frozen clock; advance moves it forward.
func newTestLimiter(t *testing.T, config *Config) (*Limiter, func(time.Duration)) {
	t.Helper()
	limiter := NewLimiter(config)
	t.Cleanup(limiter.Stop)

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	limiter.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	return limiter, func(d time.Duration) {
		mu.Lock()
		current = current.Add(d)
		mu.Unlock()
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: true, Default: Tier{Limit: 10, Window: time.Minute}})

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/frameworks", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/frameworks", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter.Round(time.Second))
	assert.True(t, info.ResetTime.After(limiter.now()))
}

func TestLimiter_Refill(t *testing.T) {
	limiter, advance := newTestLimiter(t, &Config{Enabled: true, Default: Tier{Limit: 60, Window: time.Minute}})

	for i := 0; i < 60; i++ {
		allowed, _ := limiter.Allow("client", "/frameworks", "GET")
		require.True(t, allowed)
	}
	allowed, _ := limiter.Allow("client", "/frameworks", "GET")
	require.False(t, allowed)

	advance(time.Second)
	allowed, _ = limiter.Allow("client", "/frameworks", "GET")
	assert.True(t, allowed)

	allowed, _ = limiter.Allow("client", "/frameworks", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Allowlist(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:   true,
		Default:   Tier{Limit: 1, Window: time.Minute},
		Allowlist: map[string]bool{"127.0.0.1": true},
	})

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/check", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_Denylist(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:  true,
		Default:  Tier{Limit: 100, Window: time.Minute},
		Denylist: map[string]bool{"10.0.0.1": true},
	})

	allowed, _ := limiter.Allow("10.0.0.1", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: false, Default: Tier{Limit: 1, Window: time.Minute}})

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("client", "/report", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled: true,
		Default: Tier{Limit: 1000, Window: time.Minute},
		Routes:  DefaultRoutes(),
	})

	// /report allows a burst of 2
	for i := 0; i < 2; i++ {
		allowed, info := limiter.Allow("client", "/report", "POST")
		require.True(t, allowed)
		assert.Equal(t, 10, info.Limit)
	}
	allowed, info := limiter.Allow("client", "/report", "POST")
	assert.False(t, allowed)
	assert.Greater(t, info.RetryAfter, time.Minute)

	// Other endpoints and clients are unaffected
	allowed, _ = limiter.Allow("client", "/check", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("other", "/report", "POST")
	assert.True(t, allowed)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: true, Default: Tier{Limit: 1, Window: time.Minute}, Routes: DefaultRoutes()})

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("client", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: true, Default: Tier{Limit: 100, Window: time.Hour}})

	var allowedCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("client", "/check", "POST"); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_RemoveIdle(t *testing.T) {
	limiter, advance := newTestLimiter(t, &Config{Enabled: true, Default: Tier{Limit: 10, Window: time.Minute}})

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i), "/check", "POST")
	}
	advance(2 * time.Hour)
	limiter.Allow("fresh", "/check", "POST")

	limiter.removeIdle(limiter.now().Add(-idleTTL))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.entries, 1)
	assert.Contains(t, limiter.entries, "fresh:/check:POST")
}

func TestLimiter_StopIdempotent(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("client", "/frameworks", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestConfig_TierFor(t *testing.T) {
	cfg := &Config{Default: Tier{Limit: 1000, Window: time.Minute}, Routes: DefaultRoutes()}

	assert.Equal(t, cfg.Default, cfg.TierFor("GET", "/frameworks"))
	assert.Equal(t, 10, cfg.TierFor("POST", "/report").Limit)
	assert.Equal(t, time.Hour, cfg.TierFor("POST", "/report/download").Window)
	assert.Equal(t, 120, cfg.TierFor("POST", "/check").Limit)
	assert.True(t, cfg.TierFor("GET", "/health").Unlimited())
	assert.Equal(t, cfg.Default, cfg.TierFor("GET", "/check"))
}

func TestTier_Unlimited(t *testing.T) {
	assert.True(t, Tier{}.Unlimited())
	assert.True(t, Tier{Limit: 5}.Unlimited())
	assert.False(t, Tier{Limit: 5, Window: time.Second}.Unlimited())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "not-a-duration")
	t.Setenv("RATE_LIMIT_ALLOWLIST", "127.0.0.1, ::1,")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.Default.Limit)
	assert.Equal(t, time.Minute, cfg.Default.Window)
	assert.Len(t, cfg.Allowlist, 2)
	assert.True(t, cfg.Allowlist["::1"])
	assert.NotEmpty(t, cfg.Routes)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
