package store

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"cursor-keeper/internal/config"

	"github.com/spf13/afero"
)

type urlMap map[string]string

func (m urlMap) DownloadURL(ctx context.Context, ver string) (string, bool) {
	u, ok := m[ver]
	return u, ok
}

func newTestStore(t *testing.T, urls URLResolver, timeout time.Duration) (*Store, afero.Fs) {
	t.Helper()
	s := config.SettingsForRoot("/home/dev")
	if timeout > 0 {
		s.DownloadTimeout = timeout
	}
	fs := afero.NewMemMapFs()
	return New(s, urls, WithFs(fs)), fs
}

func TestPath(t *testing.T) {
	st, _ := newTestStore(t, urlMap{}, 0)
	if got, want := st.Path("1.3.0"), "/home/dev/app-images/cursor-1.3.0.AppImage"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestDownloadIsIdempotent(t *testing.T) {
	payload := bytes.Repeat([]byte("appimage"), 5000)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if ua := r.Header.Get("User-Agent"); ua != config.DefaultUserAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	st, fs := newTestStore(t, urlMap{"1.3.0": srv.URL + "/cursor.AppImage"}, 0)

	var last, total int64
	calls := 0
	err := st.Download(context.Background(), "1.3.0", func(d, n int64) {
		if d < last {
			t.Errorf("progress went backwards: %d after %d", d, last)
		}
		last, total = d, n
		calls++
	})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if last != int64(len(payload)) || total != int64(len(payload)) {
		t.Errorf("final progress = %d/%d, want %d", last, total, len(payload))
	}
	if calls < 2 {
		t.Errorf("progress called %d times, want one per chunk", calls)
	}

	data, err := afero.ReadFile(fs, st.Path("1.3.0"))
	if err != nil || !bytes.Equal(data, payload) {
		t.Fatalf("artifact content mismatch: %v", err)
	}
	info, _ := fs.Stat(st.Path("1.3.0"))
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
	if ok, _ := afero.Exists(fs, st.Path("1.3.0")+".part"); ok {
		t.Error("partial file left behind")
	}

	if err := st.Download(context.Background(), "1.3.0", nil); err != nil {
		t.Fatalf("second Download() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestDownloadUnknownVersion(t *testing.T) {
	st, fs := newTestStore(t, urlMap{}, 0)
	// an existing file does not help when the version is not in the manifest
	_ = fs.MkdirAll(st.Dir(), 0o755)
	_ = afero.WriteFile(fs, st.Path("9.9.9"), []byte("x"), 0o755)

	err := st.Download(context.Background(), "9.9.9", nil)
	if !errors.Is(err, ErrNoDownloadURL) {
		t.Errorf("Download() error = %v, want ErrNoDownloadURL", err)
	}
}

func TestDownloadHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	st, fs := newTestStore(t, urlMap{"1.3.0": srv.URL}, 0)
	err := st.Download(context.Background(), "1.3.0", nil)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("Download() error = %v, want ErrDownloadFailed", err)
	}
	if st.Exists("1.3.0") {
		t.Error("artifact exists after failed download")
	}
	if ok, _ := afero.Exists(fs, st.Path("1.3.0")+".part"); ok {
		t.Error("partial file left behind")
	}
}

func TestDownloadTruncatedBodyRemovesPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		_, _ = w.Write([]byte("only a few bytes"))
	}))
	defer srv.Close()

	st, fs := newTestStore(t, urlMap{"1.3.0": srv.URL}, 0)
	err := st.Download(context.Background(), "1.3.0", nil)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("Download() error = %v, want ErrDownloadFailed", err)
	}
	if st.Exists("1.3.0") {
		t.Error("truncated artifact kept under its final name")
	}
	if ok, _ := afero.Exists(fs, st.Path("1.3.0")+".part"); ok {
		t.Error("partial file left behind")
	}
}

// noChmodFs refuses permission changes, like a mount without exec support.
type noChmodFs struct{ afero.Fs }

func (noChmodFs) Chmod(name string, mode os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: os.ErrPermission}
}

func TestDownloadChmodFailureLeavesNoArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("complete body"))
	}))
	defer srv.Close()

	fs := noChmodFs{afero.NewMemMapFs()}
	st := New(config.SettingsForRoot("/home/dev"), urlMap{"1.3.0": srv.URL}, WithFs(fs))
	err := st.Download(context.Background(), "1.3.0", nil)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("Download() error = %v, want ErrDownloadFailed", err)
	}
	if st.Exists("1.3.0") {
		t.Error("non-executable artifact kept under its final name")
	}
	if ok, _ := afero.Exists(fs, st.Path("1.3.0")+".part"); ok {
		t.Error("partial file left behind")
	}
}

func TestDownloadIdleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		_, _ = w.Write([]byte("first chunk"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	st, _ := newTestStore(t, urlMap{"1.3.0": srv.URL}, 100*time.Millisecond)
	start := time.Now()
	err := st.Download(context.Background(), "1.3.0", nil)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("Download() error = %v, want ErrDownloadFailed", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("idle timeout took %v", elapsed)
	}
	if st.Exists("1.3.0") {
		t.Error("artifact exists after idle timeout")
	}
}
