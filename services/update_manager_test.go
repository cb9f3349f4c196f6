package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"cursor-keeper/internal/activation"
	"cursor-keeper/internal/config"
	"cursor-keeper/internal/manifest"
	"cursor-keeper/internal/models"
	"cursor-keeper/internal/probe"
	"cursor-keeper/internal/store"
	"cursor-keeper/internal/utils"
	"cursor-keeper/internal/version"
)

type noProcesses struct{}

func (noProcesses) List(ctx context.Context) ([]utils.ProcessEntry, error) {
	return nil, nil
}

type refuseRunner struct{}

func (refuseRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return nil, errors.New("not an appimage")
}

// release serves a manifest and the artifacts it lists.
type release struct {
	srv            *httptest.Server
	mu             sync.Mutex
	hits           map[string]int
	manifestStatus int
	artifactStatus int
}

func newRelease(t *testing.T, versions ...string) *release {
	t.Helper()
	r := &release{hits: map[string]int{}, manifestStatus: http.StatusOK, artifactStatus: http.StatusOK}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.hits[req.URL.Path]++
		manifestStatus, artifactStatus := r.manifestStatus, r.artifactStatus
		r.mu.Unlock()

		if req.URL.Path == "/version-history.json" {
			if manifestStatus != http.StatusOK {
				w.WriteHeader(manifestStatus)
				return
			}
			doc := `{"versions":[`
			for i, v := range versions {
				if i > 0 {
					doc += ","
				}
				url := r.srv.URL + "/download/" + v
				doc += fmt.Sprintf(`{"version":%q,"platforms":{"linux-x64":%q,"linux-arm64":%q}}`, v, url, url)
			}
			doc += `]}`
			_, _ = w.Write([]byte(doc))
			return
		}
		if artifactStatus != http.StatusOK {
			w.WriteHeader(artifactStatus)
			return
		}
		_, _ = w.Write([]byte("appimage " + filepath.Base(req.URL.Path)))
	}))
	t.Cleanup(r.srv.Close)
	return r
}

func (r *release) hitCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[path]
}

func newTestManager(t *testing.T, rel *release) (*UpdateManager, config.Settings) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := config.SettingsForRoot(root)
	s.ManifestURL = rel.srv.URL + "/version-history.json"

	resolver := manifest.NewResolver(s)
	local := probe.New(s, probe.WithLister(noProcesses{}), probe.WithRunner(refuseRunner{}))
	st := store.New(s, resolver)
	return NewUpdateManagerWith(resolver, local, st, activation.New(s, st, local)), s
}

func writeArtifact(t *testing.T, s config.Settings, ver string) string {
	t.Helper()
	path := filepath.Join(s.DownloadsDir, "cursor-"+ver+".AppImage")
	if err := os.MkdirAll(s.DownloadsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("local "+ver), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// timeAgo returns a time past the cache freshness window.
func timeAgo(t *testing.T, s config.Settings) time.Time {
	t.Helper()
	return time.Now().Add(-2 * s.CacheMaxAge)
}

func TestUpdateFreshInstall(t *testing.T) {
	rel := newRelease(t, "1.2.0", "1.3.0")
	m, s := newTestManager(t, rel)

	ver, err := m.Update(context.Background(), nil)
	if err != nil || ver != "1.3.0" {
		t.Fatalf("Update() = %q, %v; want 1.3.0", ver, err)
	}
	target, err := os.Readlink(s.PointerPath)
	if err != nil || target != filepath.Join(s.DownloadsDir, "cursor-1.3.0.AppImage") {
		t.Errorf("pointer -> %q, %v", target, err)
	}
	if n := rel.hitCount("/download/1.3.0"); n != 1 {
		t.Errorf("artifact downloaded %d times, want 1", n)
	}
	if n := rel.hitCount("/download/1.2.0"); n != 0 {
		t.Errorf("older artifact downloaded %d times", n)
	}

	st := m.Status(context.Background())
	want := models.VersionStatus{Active: "1.3.0", LatestLocal: "1.3.0", LatestRemote: "1.3.0"}
	if st != want {
		t.Errorf("Status() = %+v, want %+v", st, want)
	}
	if a := Advice(st); a != models.AdviceUpToDate {
		t.Errorf("Advice() = %s", a)
	}
}

func TestUpdateSkipsDownloadWhenPresent(t *testing.T) {
	rel := newRelease(t, "1.2.0", "1.3.0")
	m, s := newTestManager(t, rel)
	artifact := writeArtifact(t, s, "1.3.0")

	ver, err := m.Update(context.Background(), nil)
	if err != nil || ver != "1.3.0" {
		t.Fatalf("Update() = %q, %v", ver, err)
	}
	if n := rel.hitCount("/download/1.3.0"); n != 0 {
		t.Errorf("artifact downloaded %d times, want 0", n)
	}
	if target, _ := os.Readlink(s.PointerPath); target != artifact {
		t.Errorf("pointer -> %q, want %q", target, artifact)
	}
	data, _ := os.ReadFile(artifact)
	if string(data) != "local 1.3.0" {
		t.Errorf("local artifact overwritten: %q", data)
	}
}

func TestUpdateLatestUnknown(t *testing.T) {
	rel := newRelease(t, "1.3.0")
	rel.manifestStatus = http.StatusServiceUnavailable
	m, s := newTestManager(t, rel)

	_, err := m.Update(context.Background(), nil)
	if !errors.Is(err, ErrLatestUnknown) {
		t.Fatalf("Update() error = %v, want ErrLatestUnknown", err)
	}
	if _, err := os.Lstat(s.PointerPath); !os.IsNotExist(err) {
		t.Error("pointer created without a known version")
	}
}

func TestUpdateDownloadFailureKeepsPointer(t *testing.T) {
	rel := newRelease(t, "1.2.0", "1.3.0")
	m, s := newTestManager(t, rel)
	old := writeArtifact(t, s, "1.2.0")
	if err := m.Select(context.Background(), "1.2.0"); err != nil {
		t.Fatal(err)
	}

	rel.mu.Lock()
	rel.artifactStatus = http.StatusNotFound
	rel.mu.Unlock()
	_, err := m.Update(context.Background(), nil)
	if !errors.Is(err, store.ErrDownloadFailed) {
		t.Fatalf("Update() error = %v, want ErrDownloadFailed", err)
	}
	if target, _ := os.Readlink(s.PointerPath); target != old {
		t.Errorf("pointer -> %q, want %q", target, old)
	}
	if _, err := os.Stat(filepath.Join(s.DownloadsDir, "cursor-1.3.0.AppImage")); !os.IsNotExist(err) {
		t.Error("failed download left an artifact")
	}
}

func TestUpdateUsesStaleCacheWhenOffline(t *testing.T) {
	rel := newRelease(t, "1.2.0", "1.3.0")
	m, s := newTestManager(t, rel)
	writeArtifact(t, s, "1.3.0")

	// populate the cache, then age it and take the manifest away
	if _, err := m.Update(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(s.CacheFile, timeAgo(t, s), timeAgo(t, s)); err != nil {
		t.Fatal(err)
	}
	rel.mu.Lock()
	rel.manifestStatus = http.StatusBadGateway
	rel.mu.Unlock()

	ver, err := m.Update(context.Background(), nil)
	if err != nil || ver != "1.3.0" {
		t.Errorf("Update() = %q, %v; want 1.3.0 from the stale cache", ver, err)
	}
}

func TestFetchDoesNotActivate(t *testing.T) {
	rel := newRelease(t, "1.2.0", "1.3.0")
	m, s := newTestManager(t, rel)

	if err := m.Fetch(context.Background(), "1.2.0", nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.DownloadsDir, "cursor-1.2.0.AppImage")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
	if _, err := os.Lstat(s.PointerPath); !os.IsNotExist(err) {
		t.Error("Fetch() activated the version")
	}
	if err := m.Fetch(context.Background(), "2.0.0", nil); !errors.Is(err, store.ErrNoDownloadURL) {
		t.Errorf("Fetch(unknown) error = %v", err)
	}
}

func TestSelect(t *testing.T) {
	rel := newRelease(t, "1.3.0")
	m, s := newTestManager(t, rel)
	writeArtifact(t, s, "1.2.0")

	if err := m.Select(context.Background(), "../1.2.0"); !errors.Is(err, version.ErrInvalidVersion) {
		t.Errorf("Select(invalid) error = %v", err)
	}
	if err := m.Select(context.Background(), "1.3.0"); !errors.Is(err, activation.ErrArtifactMissing) {
		t.Errorf("Select(missing) error = %v", err)
	}
	if err := m.Select(context.Background(), "1.2.0"); err != nil {
		t.Errorf("Select() error = %v", err)
	}
	st := m.Status(context.Background())
	if st.Active != "1.2.0" || Advice(st) != models.AdviceRemoteNewer {
		t.Errorf("Status() = %+v, advice %s", st, Advice(st))
	}
}

func TestListVersions(t *testing.T) {
	rel := newRelease(t, "1.2.0", "1.3.0")
	m, s := newTestManager(t, rel)
	writeArtifact(t, s, "1.1.0")
	writeArtifact(t, s, "1.3.0")
	if err := m.Select(context.Background(), "1.3.0"); err != nil {
		t.Fatal(err)
	}

	got := m.ListVersions(context.Background())
	want := []models.VersionRow{
		{Version: "1.3.0", Remote: true, Local: true, Active: true},
		{Version: "1.2.0", Remote: true},
		{Version: "1.1.0", Local: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListVersions() = %+v\nwant %+v", got, want)
	}
}

func TestLaunchInfo(t *testing.T) {
	rel := newRelease(t, "1.3.0")
	m, s := newTestManager(t, rel)
	artifact := writeArtifact(t, s, "1.3.0")
	if err := os.MkdirAll(filepath.Dir(s.LauncherFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.LauncherFile, []byte("[Desktop Entry]\nExec=/opt/cursor %F\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	info := m.LaunchInfo(context.Background())
	if info.PointerExists || info.LauncherExec != "/opt/cursor" {
		t.Errorf("before activation: %+v", info)
	}

	t.Setenv("PATH", filepath.Dir(s.PointerPath)+string(os.PathListSeparator)+"/usr/bin")
	if err := m.Select(context.Background(), "1.3.0"); err != nil {
		t.Fatal(err)
	}
	info = m.LaunchInfo(context.Background())
	want := models.LaunchInfo{
		LauncherExec:  s.PointerPath,
		PointerPath:   s.PointerPath,
		PointerExists: true,
		PointerIsLink: true,
		PointerTarget: artifact,
		BinDirInPath:  true,
	}
	if info != want {
		t.Errorf("LaunchInfo() = %+v\nwant %+v", info, want)
	}
}

func TestAdvice(t *testing.T) {
	tests := []struct {
		st   models.VersionStatus
		want models.Advice
	}{
		{models.VersionStatus{Active: "1.0"}, models.AdviceUnknown},
		{models.VersionStatus{LatestRemote: "1.3.0"}, models.AdviceNoActive},
		{models.VersionStatus{Active: "1.2.0", LatestLocal: "1.2.0", LatestRemote: "1.3.0"}, models.AdviceRemoteNewer},
		{models.VersionStatus{Active: "1.2.0", LatestLocal: "1.3.0", LatestRemote: "1.3.0"}, models.AdviceLocalNewer},
		{models.VersionStatus{Active: "1.3.0", LatestLocal: "1.3.0", LatestRemote: "1.3.0"}, models.AdviceUpToDate},
	}
	for _, tt := range tests {
		if got := Advice(tt.st); got != tt.want {
			t.Errorf("Advice(%+v) = %s, want %s", tt.st, got, tt.want)
		}
	}
}
