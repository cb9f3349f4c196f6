package activation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/metrics"
	"cursor-keeper/internal/utils"

	"github.com/spf13/afero"
)

var (
	ErrArtifactMissing  = errors.New("version not found locally")
	ErrActivationFailed = errors.New("activation failed")
)

// FS is a filesystem that can also manage symlinks, e.g. afero.OsFs.
type FS interface {
	afero.Fs
	afero.Symlinker
}

// ArtifactPaths names downloaded artifacts.
type ArtifactPaths interface {
	Path(version string) string
}

// RunningLocator finds the artifact a running instance was started from.
type RunningLocator interface {
	RunningPath(ctx context.Context) (string, bool)
}

/**
 * Switches the active pointer to a downloaded artifact
 * @description
 * - The pointer symlink is the only state that decides success
 * - Launcher descriptor and running instance updates are best effort
 */
type Engine struct {
	fs        FS
	pointer   string
	launcher  string
	artifacts ArtifactPaths
	running   RunningLocator
	writable  func(dir string) bool
}

type Option func(*Engine)

func WithFs(fs FS) Option {
	return func(e *Engine) {
		if fs != nil {
			e.fs = fs
		}
	}
}

// WithWritable replaces the directory write permission check.
func WithWritable(fn func(dir string) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.writable = fn
		}
	}
}

func New(s config.Settings, artifacts ArtifactPaths, running RunningLocator, opts ...Option) *Engine {
	e := &Engine{
		fs:        &afero.OsFs{},
		pointer:   s.PointerPath,
		launcher:  s.LauncherFile,
		artifacts: artifacts,
		running:   running,
		writable:  utils.Writable,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Pointer() string {
	return e.pointer
}

func (e *Engine) Launcher() string {
	return e.launcher
}

/**
 * Make ver the active version
 * @param {context.Context} ctx - Bounds the running instance lookup
 * @param {string} ver - Version whose artifact is already downloaded
 * @returns {error} ErrArtifactMissing, ErrActivationFailed or nil
 */
func (e *Engine) Activate(ctx context.Context, ver string) error {
	target := e.artifacts.Path(ver)
	if info, err := e.fs.Stat(target); err != nil || info.IsDir() {
		metrics.ObserveActivation(false)
		return fmt.Errorf("%w: %s", ErrArtifactMissing, ver)
	}

	if err := e.relink(e.pointer, target); err != nil {
		logger.Errorf("Point '%s' at '%s' failed: %v", e.pointer, target, err)
		metrics.ObserveActivation(false)
		return fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	logger.Infof("Activated %s: %s -> %s", ver, e.pointer, target)

	if updated, err := e.syncLauncher(); err != nil {
		logger.Warnf("Update launcher '%s' failed: %v", e.launcher, err)
	} else if updated {
		logger.Debugf("Launcher '%s' now runs '%s'", e.launcher, e.pointer)
	}
	e.relinkRunning(ctx, target)

	metrics.ObserveActivation(true)
	return nil
}

// relink replaces link with a symlink to target, moving aside whatever is in the way.
func (e *Engine) relink(link, target string) error {
	dir := filepath.Dir(link)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	e.clearCaseVariant(link)
	if err := e.clear(link); err != nil {
		return err
	}
	return e.fs.SymlinkIfPossible(target, link)
}

/**
 * Move aside the first entry whose name equals link's name ignoring case
 * @description
 * - Symlinks are removed, anything else (files, directories) is renamed to "<name>.backup"
 * - A variant that cannot be moved is left in place, it never blocks link itself
 */
func (e *Engine) clearCaseVariant(link string) {
	dir, base := filepath.Dir(link), filepath.Base(link)
	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		logger.Debugf("List '%s' for case variants failed: %v", dir, err)
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == base || !strings.EqualFold(name, base) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := e.moveAside(path); err != nil {
			logger.Warnf("Case variant '%s' left in place: %v", path, err)
		}
		return
	}
}

func (e *Engine) moveAside(path string) error {
	info, _, err := e.fs.LstatIfPossible(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return e.fs.Remove(path)
	}
	return e.backup(path)
}

// clear removes a symlink or backs up a regular file at path.
func (e *Engine) clear(path string) error {
	info, _, err := e.fs.LstatIfPossible(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return e.fs.Remove(path)
	case info.Mode().IsRegular():
		return e.backup(path)
	default:
		return fmt.Errorf("'%s' is not a file", path)
	}
}

func (e *Engine) backup(path string) error {
	dest := path + ".backup"
	if err := e.fs.Remove(dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := e.fs.Rename(path, dest); err != nil {
		return err
	}
	logger.Infof("Backed up '%s' to '%s'", path, dest)
	return nil
}

/**
 * Point the running instance's artifact path at target as well
 * @description
 * - Skipped when the instance already runs through the pointer or from target
 * - Skipped for paths inside the download dir, those are versioned artifacts
 * - Skipped when the path's directory is not writable
 */
func (e *Engine) relinkRunning(ctx context.Context, target string) {
	if e.running == nil {
		return
	}
	running, ok := e.running.RunningPath(ctx)
	if !ok {
		return
	}
	resolvedPointer, err := filepath.EvalSymlinks(e.pointer)
	if err != nil {
		resolvedPointer = e.pointer
	}
	if running == resolvedPointer || running == e.pointer {
		return
	}
	artifactsDir := filepath.Dir(target)
	if resolvedDir, err := filepath.EvalSymlinks(artifactsDir); err == nil {
		artifactsDir = resolvedDir
	}
	if filepath.Dir(running) == artifactsDir {
		return
	}
	if _, err := e.fs.Stat(running); err != nil || !e.writable(filepath.Dir(running)) {
		return
	}
	if err := e.relink(running, target); err != nil {
		logger.Debugf("Relink running instance '%s' failed: %v", running, err)
		return
	}
	logger.Infof("Running instance path '%s' now points at '%s'", running, target)
}
