package manifest

import (
	"context"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/metrics"
	"cursor-keeper/internal/platform"
	"cursor-keeper/internal/version"

	"github.com/spf13/afero"
)

/**
 * Resolves the remote manifest and answers version queries against it
 * @description
 * - Manifest lookup order: fresh cache, live fetch, stale cache, nothing
 * - Nothing here returns an error, failures surface as absent results
 */
type Resolver struct {
	fetcher  Fetcher
	cache    *Cache
	platform platform.Key
}

type ResolverOption func(*Resolver)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) ResolverOption {
	return func(r *Resolver) {
		if f != nil {
			r.fetcher = f
		}
	}
}

// WithCache replaces the file cache.
func WithCache(c *Cache) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithPlatform pins the platform key instead of deriving it from the host.
func WithPlatform(key platform.Key) ResolverOption {
	return func(r *Resolver) {
		if key != "" {
			r.platform = key
		}
	}
}

// NewResolver builds a resolver from settings.
func NewResolver(s config.Settings, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:  NewHTTPFetcher(s.ManifestURL, s.UserAgent, s.RequestTimeout),
		cache:    NewCache(afero.NewOsFs(), s.CacheFile, s.CacheMaxAge),
		platform: platform.Current(s.Platform),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Platform() platform.Key {
	return r.platform
}

/**
 * Fetch manifest from remote
 * @returns {*Manifest, []byte, bool} Decoded manifest, raw document, success flag
 */
func (r *Resolver) Fetch(ctx context.Context) (*Manifest, []byte, bool) {
	raw, err := r.fetcher.Fetch(ctx)
	if err != nil {
		logger.Warnf("Fetch manifest failed: %v", err)
		return nil, nil, false
	}
	m, err := Decode(raw)
	if err != nil {
		logger.Warnf("Decode manifest failed: %v", err)
		return nil, nil, false
	}
	return m, raw, true
}

/**
 * Get manifest using the cache tiers
 * @returns {*Manifest, bool} Manifest and true, or false when neither network nor cache can supply one
 */
func (r *Resolver) GetManifest(ctx context.Context) (*Manifest, bool) {
	if m, ok := r.cache.Load(); ok {
		metrics.ObserveManifest(metrics.SourceCache)
		return m, true
	}
	if m, raw, ok := r.Fetch(ctx); ok {
		r.cache.Save(raw)
		metrics.ObserveManifest(metrics.SourceRemote)
		return m, true
	}
	if m, ok := r.cache.LoadStale(); ok {
		logger.Infof("Using stale manifest cache '%s'", r.cache.Path())
		metrics.ObserveManifest(metrics.SourceStale)
		return m, true
	}
	metrics.ObserveManifest(metrics.SourceNone)
	return nil, false
}

// PlatformVersions lists versions that carry a URL for the host platform, in manifest order.
func (r *Resolver) PlatformVersions(m *Manifest) []string {
	if m == nil {
		return nil
	}
	key := string(r.platform)
	var vers []string
	for _, e := range m.Versions {
		if e.Platforms[key] != "" {
			vers = append(vers, e.Version)
		}
	}
	return vers
}

// LatestRemote returns the newest parseable version published for the host platform.
func (r *Resolver) LatestRemote(ctx context.Context) (string, bool) {
	m, ok := r.GetManifest(ctx)
	if !ok {
		return "", false
	}
	return version.Latest(r.PlatformVersions(m))
}

// RemoteVersions returns platform versions newest first.
func (r *Resolver) RemoteVersions(ctx context.Context) []string {
	m, ok := r.GetManifest(ctx)
	if !ok {
		return nil
	}
	return version.Sort(r.PlatformVersions(m))
}

// DownloadURL looks up the exact version string, then the host platform.
func (r *Resolver) DownloadURL(ctx context.Context, ver string) (string, bool) {
	m, ok := r.GetManifest(ctx)
	if !ok {
		return "", false
	}
	return m.URL(ver, string(r.platform))
}
