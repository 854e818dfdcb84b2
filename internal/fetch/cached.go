package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/anupalankarta/internal/cache"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// Store is the cache backing a CachedFetcher.
type Store interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch cache.FetchFunc) (string, bool, error)
	Peek(key string) (string, time.Time, bool, error)
}

// CachedFetcher fetches page text through a TTL cache keyed by URL.
type CachedFetcher struct {
	store          Store
	options        *Options
	cacheTTL       time.Duration
	strict         bool
	useBrowser     bool
	browserTimeout time.Duration
	logger         *zap.Logger

	render func(ctx context.Context, url string, opts *BrowserOptions, logger *zap.Logger) (string, error)
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Options  *Options
	// StrictExtraction turns an empty extraction into an ExtractionError instead of caching "",
	// and an oversized body into an Error instead of caching its prefix.
	StrictExtraction bool
	// UseBrowser re-renders pages whose extracted text is shorter than MinContentLength.
	UseBrowser     bool
	BrowserTimeout time.Duration
	Logger         *zap.Logger
}

// DefaultCachedFetcherConfig returns the defaults: 12 hour TTL, lenient extraction, no browser.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: cache.DefaultTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher. A nil store disables caching.
func NewCachedFetcher(store Store, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = cache.DefaultTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{
		store:          store,
		options:        config.Options,
		cacheTTL:       config.CacheTTL,
		strict:         config.StrictExtraction,
		useBrowser:     config.UseBrowser,
		browserTimeout: config.BrowserTimeout,
		logger:         logger,
		render:         RenderWithBrowser,
	}
}

// CachedResult is page text with cache metadata.
type CachedResult struct {
	URL       string
	Text      string
	FromCache bool
}

// FetchText returns the extracted text of a URL using the configured TTL.
func (f *CachedFetcher) FetchText(ctx context.Context, urlStr string) (*CachedResult, error) {
	return f.FetchTextTTL(ctx, urlStr, f.cacheTTL)
}

// FetchTextTTL returns the extracted text of a URL, reusing a cached copy younger than ttl.
// Failed fetches are never cached.
func (f *CachedFetcher) FetchTextTTL(ctx context.Context, urlStr string, ttl time.Duration) (*CachedResult, error) {
	if f.store == nil {
		text, err := f.fetchText(ctx, urlStr)
		if err != nil {
			return nil, err
		}
		return &CachedResult{URL: urlStr, Text: text}, nil
	}

	text, fromCache, err := f.store.GetOrFetch(ctx, urlStr, ttl, func(ctx context.Context) (string, error) {
		text, err := f.fetchText(ctx, urlStr)
		if err != nil {
			return "", err
		}
		f.logRefresh(urlStr, text)
		return text, nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Info("fetched page text",
		zap.String("url", urlStr),
		zap.Bool("from_cache", fromCache),
		zap.Int("chars", len(text)))
	return &CachedResult{URL: urlStr, Text: text, FromCache: fromCache}, nil
}

func (f *CachedFetcher) fetchText(ctx context.Context, urlStr string) (string, error) {
	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return "", err
	}
	if result.Truncated {
		if f.strict {
			return "", &Error{URL: urlStr, Message: fmt.Sprintf("response body exceeds %d bytes", MaxBodyBytes), StatusCode: result.StatusCode}
		}
		f.logger.Warn("response body truncated, text may be incomplete",
			zap.String("url", urlStr),
			zap.Int("limit_bytes", MaxBodyBytes))
	}

	text := ExtractText(result.HTML)
	if f.useBrowser && ShouldUseBrowser(text) {
		f.logger.Debug("extracted text below threshold, rendering in browser",
			zap.String("url", urlStr),
			zap.Int("chars", len(text)),
			zap.Int("min", MinContentLength))

		rendered, err := f.render(ctx, urlStr, &BrowserOptions{
			Timeout:   f.browserTimeout,
			UserAgent: f.options.UserAgent,
		}, f.logger)
		if err != nil {
			f.logger.Warn("browser rendering failed, keeping HTTP text", zap.String("url", urlStr), zap.Error(err))
		} else if renderedText := ExtractText(rendered); len(renderedText) > len(text) {
			text = renderedText
		}
	}

	if f.strict && text == "" {
		return "", &ExtractionError{URL: urlStr, Message: "no paragraph or list-item text found"}
	}
	return text, nil
}

// logRefresh reports how much a refreshed page changed from its stale cached copy.
func (f *CachedFetcher) logRefresh(urlStr, fresh string) {
	previous, fetchedAt, ok, err := f.store.Peek(urlStr)
	if err != nil || !ok {
		return
	}

	dmp := diffmatchpatch.New()
	distance := dmp.DiffLevenshtein(dmp.DiffMain(previous, fresh, false))
	f.logger.Info("refreshed stale cache entry",
		zap.String("url", urlStr),
		zap.Time("previous_fetch", fetchedAt),
		zap.Int("edit_distance", distance),
		zap.Bool("changed", distance > 0))
}
