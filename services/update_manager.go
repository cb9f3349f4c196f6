package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cursor-keeper/internal/activation"
	"cursor-keeper/internal/config"
	"cursor-keeper/internal/env"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/manifest"
	"cursor-keeper/internal/metrics"
	"cursor-keeper/internal/models"
	"cursor-keeper/internal/probe"
	"cursor-keeper/internal/store"
	"cursor-keeper/internal/version"
)

var ErrLatestUnknown = errors.New("could not determine latest version")

// RemoteSource answers questions about the published versions.
type RemoteSource interface {
	LatestRemote(ctx context.Context) (string, bool)
	RemoteVersions(ctx context.Context) []string
}

// LocalSource answers questions about the versions on this host.
type LocalSource interface {
	ActiveVersion(ctx context.Context) (string, bool)
	LatestLocal(ctx context.Context) (string, bool)
	LocalVersions(ctx context.Context) []string
	RunningPath(ctx context.Context) (string, bool)
}

type Downloader interface {
	Download(ctx context.Context, version string, progress store.ProgressFunc) error
	Exists(version string) bool
}

type Activator interface {
	Activate(ctx context.Context, version string) error
	Pointer() string
	LauncherCommand() (string, bool)
}

/**
 * Update manager reconciles the local installation with the remote manifest
 * @description
 * - Sequential, one operation at a time per caller
 * - All the state lives on disk, the manager itself only holds components
 */
type UpdateManager struct {
	settings  config.Settings
	remote    RemoteSource
	local     LocalSource
	store     Downloader
	activator Activator
}

var updateManager *UpdateManager

/**
 * Get the update manager built from the current configuration
 * @returns {*UpdateManager} Shared instance
 */
func GetUpdateManager() *UpdateManager {
	if updateManager != nil {
		return updateManager
	}
	updateManager = NewUpdateManager(config.Current())
	return updateManager
}

/**
 * Wire resolver, probe, store and activation engine from settings
 * @param {config.Settings} s - Effective settings
 * @returns {*UpdateManager} New manager
 */
func NewUpdateManager(s config.Settings) *UpdateManager {
	resolver := manifest.NewResolver(s)
	local := probe.New(s)
	st := store.New(s, resolver)
	return &UpdateManager{
		settings:  s,
		remote:    resolver,
		local:     local,
		store:     st,
		activator: activation.New(s, st, local),
	}
}

// Settings returns the settings the manager was built from.
func (m *UpdateManager) Settings() config.Settings {
	return m.settings
}

// NewUpdateManagerWith assembles a manager from explicit components.
func NewUpdateManagerWith(remote RemoteSource, local LocalSource, dl Downloader, act Activator) *UpdateManager {
	return &UpdateManager{
		remote:    remote,
		local:     local,
		store:     dl,
		activator: act,
	}
}

/**
 * Bring the host to the latest published version
 * @param {context.Context} ctx - Cancels network and probe work
 * @param {store.ProgressFunc} progress - Optional download progress callback
 * @returns {string, error} Activated version, or the first failure
 * @description
 * - Downloads only when the newest local version differs from the newest remote one
 * - Always activates, so the pointer is repaired even when nothing was downloaded
 */
func (m *UpdateManager) Update(ctx context.Context, progress store.ProgressFunc) (ver string, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpdate(err == nil, time.Since(start))
	}()

	latestRemote, ok := m.remote.LatestRemote(ctx)
	if !ok {
		return "", ErrLatestUnknown
	}
	latestLocal, _ := m.local.LatestLocal(ctx)
	if latestRemote != latestLocal {
		logger.Infof("Downloading %s (latest local: %q)", latestRemote, latestLocal)
		if err := m.store.Download(ctx, latestRemote, progress); err != nil {
			return "", err
		}
	}
	if err := m.activator.Activate(ctx, latestRemote); err != nil {
		return "", err
	}
	return latestRemote, nil
}

// Status collects the active, newest local and newest remote versions.
func (m *UpdateManager) Status(ctx context.Context) models.VersionStatus {
	var st models.VersionStatus
	st.LatestRemote, _ = m.remote.LatestRemote(ctx)
	st.LatestLocal, _ = m.local.LatestLocal(ctx)
	st.Active, _ = m.local.ActiveVersion(ctx)
	return st
}

/**
 * Derive the update advice from a status
 * @param {models.VersionStatus} st - Status from Status()
 * @returns {models.Advice} What the user should do next
 */
func Advice(st models.VersionStatus) models.Advice {
	switch {
	case st.LatestRemote == "":
		return models.AdviceUnknown
	case st.Active == "":
		return models.AdviceNoActive
	case st.LatestRemote != st.LatestLocal:
		return models.AdviceRemoteNewer
	case st.LatestRemote != st.Active:
		return models.AdviceLocalNewer
	default:
		return models.AdviceUpToDate
	}
}

/**
 * Describe how the application is launched
 * @returns {models.LaunchInfo} Running instance, launcher and pointer details
 */
func (m *UpdateManager) LaunchInfo(ctx context.Context) models.LaunchInfo {
	pointer := m.activator.Pointer()
	info := models.LaunchInfo{
		PointerPath:  pointer,
		BinDirInPath: env.InPath(filepath.Dir(pointer)),
	}
	info.RunningFrom, _ = m.local.RunningPath(ctx)
	info.LauncherExec, _ = m.activator.LauncherCommand()
	if fi, err := os.Lstat(pointer); err == nil {
		info.PointerExists = true
		if fi.Mode()&os.ModeSymlink != 0 {
			info.PointerIsLink = true
			info.PointerTarget, _ = os.Readlink(pointer)
		}
	}
	return info
}

// Select activates a version that is already downloaded.
func (m *UpdateManager) Select(ctx context.Context, ver string) error {
	if !version.Valid(ver) {
		return fmt.Errorf("%w: %q", version.ErrInvalidVersion, ver)
	}
	return m.activator.Activate(ctx, ver)
}

// Fetch downloads a version without activating it.
func (m *UpdateManager) Fetch(ctx context.Context, ver string, progress store.ProgressFunc) error {
	if !version.Valid(ver) {
		return fmt.Errorf("%w: %q", version.ErrInvalidVersion, ver)
	}
	return m.store.Download(ctx, ver, progress)
}

/**
 * List remote and local versions, newest first
 * @returns {[]models.VersionRow} One row per distinct version
 */
func (m *UpdateManager) ListVersions(ctx context.Context) []models.VersionRow {
	rows := map[string]*models.VersionRow{}
	row := func(v string) *models.VersionRow {
		r, ok := rows[v]
		if !ok {
			r = &models.VersionRow{Version: v}
			rows[v] = r
		}
		return r
	}
	for _, v := range m.remote.RemoteVersions(ctx) {
		row(v).Remote = true
	}
	for _, v := range m.local.LocalVersions(ctx) {
		row(v).Local = true
	}
	if active, ok := m.local.ActiveVersion(ctx); ok {
		row(active).Active = true
	}

	keys := make([]string, 0, len(rows))
	for v := range rows {
		keys = append(keys, v)
	}
	var result []models.VersionRow
	for _, v := range version.Sort(keys) {
		result = append(result, *rows[v])
	}
	return result
}
