// Package cache provides a file-backed key/value store with time-to-live reads.
//
// Each entry is one flat file named after its normalized key and holding only the value.
// Staleness is decided from the file's modification time; there is no in-file metadata.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a fetched page stays fresh.
	DefaultTTL = 12 * time.Hour
	// DefaultMaxEntries bounds the number of entry files kept on disk.
	DefaultMaxEntries = 256
	// DefaultFetchTimeout bounds a shared fetch once it no longer follows its caller.
	DefaultFetchTimeout = time.Minute

	entrySuffix  = ".txt"
	maxKeyLength = 200
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// NormalizeKey turns an arbitrary string (usually a URL) into a filesystem-safe key.
// Every character outside [A-Za-z0-9] becomes '_', so URLs that differ only in punctuation
// share a key. Keys longer than the filesystem-friendly limit are truncated and suffixed
// with a hash of the original string.
func NormalizeKey(raw string) string {
	key := nonAlphanumeric.ReplaceAllString(raw, "_")
	if len(key) <= maxKeyLength {
		return key
	}
	sum := sha256.Sum256([]byte(raw))
	return key[:maxKeyLength-17] + "_" + hex.EncodeToString(sum[:8])
}

// FetchFunc produces a fresh value for a key on a cache miss.
type FetchFunc func(ctx context.Context) (string, error)

// Options configures a FileStore.
type Options struct {
	Dir        string
	MaxEntries int // 0 means unbounded
	// FetchTimeout bounds a shared fetch. Non-positive means DefaultFetchTimeout.
	FetchTimeout time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// DefaultOptions returns options for a store rooted at dir.
func DefaultOptions(dir string) *Options {
	return &Options{
		Dir:          dir,
		MaxEntries:   DefaultMaxEntries,
		FetchTimeout: DefaultFetchTimeout,
	}
}

// FileStore is a TTL cache persisted as one file per key.
// It is safe for concurrent use: writes are atomic renames and concurrent misses for the
// same key share a single fetch.
type FileStore struct {
	dir          string
	maxEntries   int
	fetchTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	group   singleflight.Group
	evictMu sync.Mutex
}

// NewFileStore creates the cache directory if needed and returns a store over it.
func NewFileStore(opts *Options) (*FileStore, error) {
	if opts == nil || opts.Dir == "" {
		return nil, &Error{Message: "cache directory is required"}
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &Error{Message: "failed to create cache directory", Path: opts.Dir, Cause: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	return &FileStore{
		dir:          opts.Dir,
		maxEntries:   opts.MaxEntries,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		now:          now,
	}, nil
}

// Dir returns the directory holding the entry files.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, NormalizeKey(key)+entrySuffix)
}

// Get returns the value for key if it exists and is younger than ttl.
// A non-positive ttl treats every entry as stale.
func (s *FileStore) Get(key string, ttl time.Duration) (string, bool, error) {
	value, modTime, ok, err := s.Peek(key)
	if err != nil || !ok {
		return "", false, err
	}
	if ttl <= 0 || s.now().Sub(modTime) >= ttl {
		return "", false, nil
	}
	return value, true, nil
}

// Peek returns the stored value for key and when it was written, regardless of age.
func (s *FileStore) Peek(key string) (string, time.Time, bool, error) {
	path := s.path(key)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, &Error{Message: "failed to stat entry", Path: path, Cause: err}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		// removed by eviction between stat and read
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, &Error{Message: "failed to read entry", Path: path, Cause: err}
	}
	return string(data), info.ModTime(), true, nil
}

// Put stores value under key, stamping it with the store's current time.
func (s *FileStore) Put(key, value string) error {
	path := s.path(key)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &Error{Message: "failed to create temp file", Path: s.dir, Cause: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return &Error{Message: "failed to write entry", Path: path, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &Error{Message: "failed to close entry", Path: path, Cause: err}
	}
	stamp := s.now()
	if err := os.Chtimes(tmpName, stamp, stamp); err != nil {
		cleanup()
		return &Error{Message: "failed to stamp entry", Path: path, Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &Error{Message: "failed to commit entry", Path: path, Cause: err}
	}

	s.evict()
	return nil
}

// Len returns the number of entries on disk.
func (s *FileStore) Len() (int, error) {
	entries, err := s.entries()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

type fetchOutcome struct {
	value     string
	fromCache bool
}

// GetOrFetch returns the fresh cached value for key, or calls fetch and stores its result.
// Concurrent callers missing on the same key share one fetch. The shared fetch keeps the
// first caller's values but not its cancellation, and is bounded by the store's fetch
// timeout; each caller still returns early when its own ctx is done.
// A failed fetch stores nothing. A value that was fetched but could not be written is
// still returned.
func (s *FileStore) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (string, bool, error) {
	value, ok, err := s.Get(key, ttl)
	if err != nil {
		s.logger.Warn("cache read failed, fetching", zap.String("key", key), zap.Error(err))
	} else if ok {
		s.logger.Debug("cache hit", zap.String("key", key))
		return value, true, nil
	}

	ch := s.group.DoChan(NormalizeKey(key), func() (any, error) {
		// another caller may have refreshed the entry while we waited
		if value, ok, err := s.Get(key, ttl); err == nil && ok {
			return fetchOutcome{value: value, fromCache: true}, nil
		}

		s.logger.Debug("cache miss", zap.String("key", key))
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := s.Put(key, value); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return fetchOutcome{value: value}, nil
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		outcome := res.Val.(fetchOutcome)
		return outcome.value, outcome.fromCache, nil
	}
}

type entryInfo struct {
	path    string
	modTime time.Time
}

func (s *FileStore) entries() ([]entryInfo, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &Error{Message: "failed to list cache directory", Path: s.dir, Cause: err}
	}

	entries := make([]entryInfo, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), entrySuffix) || strings.HasPrefix(de.Name(), ".tmp-") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entryInfo{path: filepath.Join(s.dir, de.Name()), modTime: info.ModTime()})
	}
	return entries, nil
}

// evict removes the oldest entries until the store is within its capacity.
func (s *FileStore) evict() {
	if s.maxEntries <= 0 {
		return
	}
	s.evictMu.Lock()
	defer s.evictMu.Unlock()

	entries, err := s.entries()
	if err != nil {
		s.logger.Warn("cache eviction skipped", zap.Error(err))
		return
	}
	if len(entries) <= s.maxEntries {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	for _, e := range entries[:len(entries)-s.maxEntries] {
		if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache eviction failed", zap.String("path", e.path), zap.Error(err))
			continue
		}
		s.logger.Debug("cache entry evicted", zap.String("path", e.path))
	}
}
