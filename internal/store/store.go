package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/logger"
	"cursor-keeper/internal/metrics"

	"github.com/spf13/afero"
)

var (
	ErrNoDownloadURL  = errors.New("no download url for version")
	ErrDownloadFailed = errors.New("download failed")
)

// URLResolver maps a version to its download URL for the host platform.
type URLResolver interface {
	DownloadURL(ctx context.Context, version string) (string, bool)
}

// ProgressFunc receives cumulative bytes written and the announced total.
type ProgressFunc func(downloaded, total int64)

/**
 * Downloaded artifact directory
 * @description
 * - Artifacts are named "<product>-<version><ext>" and are never deleted here
 * - Downloads land in "<name>.part" and are renamed into place when complete
 */
type Store struct {
	fs          afero.Fs
	dir         string
	product     string
	ext         string
	urls        URLResolver
	client      *http.Client
	userAgent   string
	chunkSize   int
	idleTimeout time.Duration
}

type Option func(*Store)

func WithFs(fs afero.Fs) Option {
	return func(s *Store) {
		if fs != nil {
			s.fs = fs
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		if c != nil {
			s.client = c
		}
	}
}

func New(cfg config.Settings, urls URLResolver, opts ...Option) *Store {
	s := &Store{
		fs:          afero.NewOsFs(),
		dir:         cfg.DownloadsDir,
		product:     cfg.Product,
		ext:         cfg.Extension,
		urls:        urls,
		client:      &http.Client{},
		userAgent:   cfg.UserAgent,
		chunkSize:   cfg.ChunkSize,
		idleTimeout: cfg.DownloadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the artifact of ver lives, whether or not it exists.
func (s *Store) Path(ver string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", s.product, ver, s.ext))
}

func (s *Store) Exists(ver string) bool {
	info, err := s.fs.Stat(s.Path(ver))
	return err == nil && !info.IsDir()
}

/**
 * Make sure the artifact of ver is present locally
 * @param {context.Context} ctx - Cancels the transfer
 * @param {string} ver - Version to download
 * @param {ProgressFunc} progress - Optional, called after each chunk when the size is known
 * @returns {error} ErrNoDownloadURL, ErrDownloadFailed or nil
 * @description
 * - The URL is resolved first, so an unknown version fails even if a file exists
 * - An existing artifact is success without touching the network
 * - The download timeout is an idle timeout, it restarts with every chunk
 */
func (s *Store) Download(ctx context.Context, ver string, progress ProgressFunc) error {
	url, ok := s.urls.DownloadURL(ctx, ver)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoDownloadURL, ver)
	}
	if s.Exists(ver) {
		logger.Infof("Version %s already downloaded", ver)
		metrics.ObserveDownload(true, true, 0)
		return nil
	}

	n, err := s.fetch(ctx, url, s.Path(ver), progress)
	metrics.ObserveDownload(err == nil, false, n)
	if err != nil {
		logger.Errorf("Download %s from %s failed: %v", ver, url, err)
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	logger.Infof("Downloaded %s (%d bytes) to %s", ver, n, s.Path(ver))
	return nil
}

func (s *Store) fetch(ctx context.Context, url, dest string, progress ProgressFunc) (int64, error) {
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var idle atomic.Bool
	timer := time.AfterFunc(s.idleTimeout, func() {
		idle.Store(true)
		cancel()
	})
	defer timer.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, idleError(&idle, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	part := dest + ".part"
	f, err := s.fs.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := s.copyChunks(f, resp.Body, resp.ContentLength, timer, progress)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.fs.Chmod(part, 0o755)
	}
	if err == nil {
		err = s.fs.Rename(part, dest)
	}
	if err != nil {
		if rerr := s.fs.Remove(part); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warnf("Remove partial file '%s' failed: %v", part, rerr)
		}
		return written, idleError(&idle, err)
	}
	return written, nil
}

func (s *Store) copyChunks(dst io.Writer, src io.Reader, total int64, timer *time.Timer, progress ProgressFunc) (int64, error) {
	buf := make([]byte, s.chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			timer.Reset(s.idleTimeout)
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if progress != nil && total > 0 {
				progress(written, total)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func idleError(idle *atomic.Bool, err error) error {
	if idle.Load() {
		return fmt.Errorf("no data received within the idle timeout: %w", err)
	}
	return err
}
