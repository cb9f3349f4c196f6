package probe

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/utils"
	"cursor-keeper/internal/version"
)

/**
 * Local version probe
 * @description
 * - Active version lookup order: artifact filename, embedded desktop metadata,
 *   raw byte scan, then the same three steps on a running instance's path
 * - Every external command is time bounded, every failure is "no version"
 */
type Probe struct {
	settings config.Settings
	runner   utils.CommandRunner
	lister   utils.ProcessLister
	pattern  *regexp.Regexp
}

type Option func(*Probe)

func WithRunner(r utils.CommandRunner) Option {
	return func(p *Probe) {
		if r != nil {
			p.runner = r
		}
	}
}

func WithLister(l utils.ProcessLister) Option {
	return func(p *Probe) {
		if l != nil {
			p.lister = l
		}
	}
}

func New(s config.Settings, opts ...Option) *Probe {
	p := &Probe{
		settings: s,
		runner:   utils.ExecRunner{},
		lister:   utils.NewPSLister(s.ProcessTimeout),
		pattern:  FilenamePattern(s.Product, s.Extension),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FilenamePattern matches "<product>-X.Y.Z<ext>"; the product part ignores case.
func FilenamePattern(product, ext string) *regexp.Regexp {
	return regexp.MustCompile("(?i:" + regexp.QuoteMeta(product) + ")-([0-9.]+)" + regexp.QuoteMeta(ext))
}

// VersionFromFilename extracts a parseable version from an artifact name.
func (p *Probe) VersionFromFilename(name string) (string, bool) {
	m := p.pattern.FindStringSubmatch(name)
	if m == nil || !version.Valid(m[1]) {
		return "", false
	}
	return m[1], true
}

/**
 * Determine the version of one artifact file
 * @param {context.Context} ctx - Bounds the extraction and scan steps
 * @param {string} path - Artifact path, symlinks allowed
 * @returns {string, bool} Version and true, or false when no step yields one
 */
func (p *Probe) ArtifactVersion(ctx context.Context, path string) (string, bool) {
	if v, ok := p.VersionFromFilename(filepath.Base(path)); ok {
		return v, true
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil && resolved != path {
		if v, ok := p.VersionFromFilename(filepath.Base(resolved)); ok {
			return v, true
		}
	}
	if v, ok := p.versionFromExtraction(ctx, path); ok {
		return v, true
	}
	return p.versionFromBytes(ctx, path)
}

/**
 * Determine the currently active version
 * @returns {string, bool} Version of the active pointer, else of a running instance
 */
func (p *Probe) ActiveVersion(ctx context.Context) (string, bool) {
	if fileExists(p.settings.PointerPath) {
		if v, ok := p.ArtifactVersion(ctx, p.settings.PointerPath); ok {
			return v, true
		}
		logger.Debugf("No version found for pointer '%s'", p.settings.PointerPath)
	}
	running, ok := p.RunningPath(ctx)
	if !ok {
		return "", false
	}
	return p.ArtifactVersion(ctx, running)
}

/**
 * Find the artifact a running instance was started from
 * @returns {string, bool} Resolved path of an existing artifact referenced by the process table
 */
func (p *Probe) RunningPath(ctx context.Context) (string, bool) {
	entries, err := p.lister.List(ctx)
	if err != nil {
		logger.Debugf("Process lookup failed: %v", err)
		return "", false
	}
	token, ok := utils.FindArtifactInProcesses(entries, p.settings.Product, p.settings.Extension, fileExists)
	if !ok {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(token)
	if err != nil {
		return "", false
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	return resolved, true
}

// LocalVersions lists parseable versions of downloaded artifacts, newest first.
func (p *Probe) LocalVersions(ctx context.Context) []string {
	entries, err := os.ReadDir(p.settings.DownloadsDir)
	if err != nil {
		return nil
	}
	prefix := strings.ToLower(p.settings.Product) + "-"
	var vers []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(strings.ToLower(name), prefix) || !strings.HasSuffix(name, p.settings.Extension) {
			continue
		}
		v, ok := p.VersionFromFilename(name)
		if !ok {
			v, ok = p.ArtifactVersion(ctx, filepath.Join(p.settings.DownloadsDir, name))
		}
		if ok && version.Valid(v) {
			vers = append(vers, v)
		}
	}
	return version.Sort(vers)
}

// LatestLocal returns the newest downloaded version.
func (p *Probe) LatestLocal(ctx context.Context) (string, bool) {
	return version.Latest(p.LocalVersions(ctx))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
