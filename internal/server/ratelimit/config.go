package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Tier is a token bucket budget: Limit requests per Window, with up to Burst at once.
// A zero Tier leaves a route unlimited.
type Tier struct {
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit when zero
}

// Unlimited reports whether the tier imposes no limit.
func (t Tier) Unlimited() bool {
	return t.Limit <= 0 || t.Window <= 0
}

func (t Tier) newLimiter() *rate.Limiter {
	burst := t.Burst
	if burst <= 0 {
		burst = t.Limit
	}
	return rate.NewLimiter(rate.Limit(float64(t.Limit)/t.Window.Seconds()), burst)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Default         Tier
	CleanupInterval time.Duration
	Allowlist       map[string]bool // clients never limited
	Denylist        map[string]bool // clients always rejected
	// Routes maps ServeMux style "METHOD /path" patterns to their tier.
	Routes map[string]Tier
}

// DefaultRoutes returns the per-route tiers. Report generation calls a paid remote model and
// gets the strictest budget; evaluation may fetch a page or parse an upload.
func DefaultRoutes() map[string]Tier {
	return map[string]Tier{
		"GET /health":           {},
		"POST /report":          {Limit: 10, Window: time.Hour, Burst: 2},
		"POST /report/download": {Limit: 10, Window: time.Hour, Burst: 2},
		"POST /check":           {Limit: 120, Window: time.Minute, Burst: 20},
		"POST /check/upload":    {Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// TierFor returns the tier for a request, falling back to the default tier.
func (c *Config) TierFor(method, path string) Tier {
	if t, ok := c.Routes[method+" "+path]; ok {
		return t
	}
	return c.Default
}

// LoadConfig reads RATE_LIMIT_* environment variables over the defaults.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", strconv.ParseBool, true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled: true,
		Default: Tier{
			Limit:  envOr("RATE_LIMIT_DEFAULT_LIMIT", strconv.Atoi, 1000),
			Window: envOr("RATE_LIMIT_DEFAULT_WINDOW", time.ParseDuration, time.Minute),
		},
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", time.ParseDuration, 5*time.Minute),
		Allowlist:       parseClientList(os.Getenv("RATE_LIMIT_ALLOWLIST")),
		Denylist:        parseClientList(os.Getenv("RATE_LIMIT_DENYLIST")),
		Routes:          DefaultRoutes(),
	}
}

// envOr parses the named variable, returning fallback when it is unset or malformed.
func envOr[T any](key string, parse func(string) (T, error), fallback T) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

// parseClientList splits a comma-separated list of client addresses.
func parseClientList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
