package config

import (
	"os"
	"path/filepath"
	"time"

	"cursor-keeper/internal/env"
)

// Settings is the resolved, absolute-path configuration handed to each component.
type Settings struct {
	Product      string
	Extension    string
	PointerPath  string
	DownloadsDir string
	CacheFile    string
	LauncherFile string

	ManifestURL string
	UserAgent   string
	Platform    string

	CacheMaxAge     time.Duration
	RequestTimeout  time.Duration
	DownloadTimeout time.Duration
	ExtractTimeout  time.Duration
	ProcessTimeout  time.Duration
	ChunkSize       int
}

// Settings converts the loaded configuration, expanding "~" and filling zero values.
func (c *AppConfig) Settings() Settings {
	cache := env.ExpandHome(c.Paths.Cache)
	if cache == "" {
		cache = filepath.Join(os.TempDir(), c.Product.Name+"_versions.json")
	}
	s := Settings{
		Product:         c.Product.Name,
		Extension:       c.Product.Extension,
		PointerPath:     env.ExpandHome(c.Paths.Pointer),
		DownloadsDir:    env.ExpandHome(c.Paths.Downloads),
		CacheFile:       cache,
		LauncherFile:    env.ExpandHome(c.Paths.Launcher),
		ManifestURL:     c.Remote.ManifestUrl,
		UserAgent:       c.Remote.UserAgent,
		Platform:        c.Remote.Platform,
		CacheMaxAge:     c.Cache.MaxAge,
		RequestTimeout:  c.Timeouts.Request,
		DownloadTimeout: c.Timeouts.Download,
		ExtractTimeout:  c.Timeouts.Extract,
		ProcessTimeout:  c.Timeouts.Process,
		ChunkSize:       c.Download.ChunkSize,
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Product == "" {
		s.Product = "cursor"
	}
	if s.CacheMaxAge <= 0 {
		s.CacheMaxAge = 15 * time.Minute
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 10 * time.Second
	}
	if s.DownloadTimeout <= 0 {
		s.DownloadTimeout = 30 * time.Second
	}
	if s.ExtractTimeout <= 0 {
		s.ExtractTimeout = 30 * time.Second
	}
	if s.ProcessTimeout <= 0 {
		s.ProcessTimeout = 10 * time.Second
	}
	if s.ChunkSize <= 0 {
		s.ChunkSize = 8192
	}
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
	return s
}

// Current returns the settings of the currently loaded global configuration.
func Current() Settings {
	return Config.Settings()
}

/**
 * Settings rooted in a scratch directory, used by tests
 * @param {string} root - Base directory, e.g. t.TempDir()
 */
func SettingsForRoot(root string) Settings {
	s := Settings{
		Product:      "cursor",
		Extension:    ".AppImage",
		PointerPath:  filepath.Join(root, "bin", "cursor.AppImage"),
		DownloadsDir: filepath.Join(root, "app-images"),
		CacheFile:    filepath.Join(root, "cursor_versions.json"),
		LauncherFile: filepath.Join(root, "applications", "cursor.desktop"),
		ManifestURL:  "http://127.0.0.1/version-history.json",
	}
	return s.withDefaults()
}
