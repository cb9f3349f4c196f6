package probe

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cursor-keeper/internal/logger"
)

const desktopVersionKey = "X-AppImage-Version"

/**
 * Read the version from the artifact's embedded desktop entry
 * @param {context.Context} ctx - Parent context, bounded further by the extract timeout
 * @param {string} path - Artifact path
 * @returns {string, bool} X-AppImage-Version value
 * @description
 * - Runs "<artifact> --appimage-extract" inside a fresh temp dir
 * - The temp dir is removed on every return path
 */
func (p *Probe) versionFromExtraction(ctx context.Context, path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	dir, err := os.MkdirTemp("", p.settings.Product+"_version_")
	if err != nil {
		logger.Debugf("Create extraction dir failed: %v", err)
		return "", false
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warnf("Remove extraction dir '%s' failed: %v", dir, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.settings.ExtractTimeout)
	defer cancel()
	if _, err := p.runner.Run(ctx, dir, abs, "--appimage-extract"); err != nil {
		logger.Debugf("Extract '%s' failed: %v", abs, err)
		return "", false
	}
	return findDesktopVersion(dir)
}

// findDesktopVersion walks root for *.desktop files and returns the first version value.
func findDesktopVersion(root string) (string, bool) {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
			return nil
		}
		if v, ok := readDesktopVersion(path); ok {
			found = v
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

func readDesktopVersion(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, desktopVersionKey+"=") {
			continue
		}
		if v := strings.TrimSpace(strings.SplitN(line, "=", 2)[1]); v != "" {
			return v, true
		}
	}
	return "", false
}
