package manifest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/platform"

	"github.com/spf13/afero"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func newTestResolver(t *testing.T, f Fetcher, key platform.Key) (*Resolver, *Cache, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cache := NewCache(fs, "/cache/versions.json", 15*time.Minute)
	r := NewResolver(config.SettingsForRoot(t.TempDir()), WithFetcher(f), WithCache(cache), WithPlatform(key))
	return r, cache, fs
}

func TestGetManifestPrefersFreshCache(t *testing.T) {
	f := &fakeFetcher{data: []byte(sampleDoc)}
	r, cache, _ := newTestResolver(t, f, platform.LinuxX64)
	cache.Save([]byte(sampleDoc))

	if _, ok := r.GetManifest(context.Background()); !ok {
		t.Fatal("GetManifest() absent")
	}
	if f.calls != 0 {
		t.Errorf("fetcher called %d times with a fresh cache", f.calls)
	}
}

func TestGetManifestCorruptCacheFallsThroughToFetch(t *testing.T) {
	f := &fakeFetcher{data: []byte(sampleDoc)}
	r, cache, fs := newTestResolver(t, f, platform.LinuxX64)
	if err := afero.WriteFile(fs, cache.Path(), []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	m, ok := r.GetManifest(context.Background())
	if !ok || len(m.Versions) != 2 {
		t.Fatalf("GetManifest() = %v, %v", m, ok)
	}
	if f.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", f.calls)
	}
	if _, ok := cache.Load(); !ok {
		t.Error("successful fetch was not written through to the cache")
	}
}

func TestGetManifestStaleFallback(t *testing.T) {
	f := &fakeFetcher{err: errors.New("offline")}
	r, cache, fs := newTestResolver(t, f, platform.LinuxX64)
	cache.Save([]byte(sampleDoc))
	old := time.Now().Add(-time.Hour)
	if err := fs.Chtimes(cache.Path(), old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok := r.GetManifest(context.Background()); !ok {
		t.Fatal("expected stale cache fallback")
	}
	if f.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", f.calls)
	}
}

func TestGetManifestNothingAvailable(t *testing.T) {
	r, _, _ := newTestResolver(t, &fakeFetcher{err: errors.New("offline")}, platform.LinuxX64)
	if _, ok := r.GetManifest(context.Background()); ok {
		t.Fatal("GetManifest() should be absent without network and cache")
	}
	if _, ok := r.LatestRemote(context.Background()); ok {
		t.Error("LatestRemote() should be absent")
	}
}

func TestGetManifestUndecodableFetch(t *testing.T) {
	r, cache, _ := newTestResolver(t, &fakeFetcher{data: []byte("<html>")}, platform.LinuxX64)
	if _, ok := r.GetManifest(context.Background()); ok {
		t.Fatal("undecodable remote document accepted")
	}
	if _, ok := cache.LoadStale(); ok {
		t.Error("undecodable document was cached")
	}
}

func TestPlatformQueries(t *testing.T) {
	doc := `{"versions":[
	 {"version":"1.9.9","platforms":{"linux-x64":"u199"}},
	 {"version":"1.10.0","platforms":{"linux-x64":"u1100"}},
	 {"version":"nightly","platforms":{"linux-x64":"unightly"}},
	 {"version":"2.0.0","platforms":{"linux-arm64":"arm200","linux-x64":""}}
	]}`
	r, _, _ := newTestResolver(t, &fakeFetcher{data: []byte(doc)}, platform.LinuxX64)
	ctx := context.Background()

	if v, ok := r.LatestRemote(ctx); !ok || v != "1.10.0" {
		t.Errorf("LatestRemote() = %q, %v; want 1.10.0", v, ok)
	}
	want := []string{"1.10.0", "1.9.9", "nightly"}
	if got := r.RemoteVersions(ctx); !reflect.DeepEqual(got, want) {
		t.Errorf("RemoteVersions() = %v, want %v", got, want)
	}
	if u, ok := r.DownloadURL(ctx, "1.9.9"); !ok || u != "u199" {
		t.Errorf("DownloadURL(1.9.9) = %q, %v", u, ok)
	}
	if _, ok := r.DownloadURL(ctx, "2.0.0"); ok {
		t.Error("DownloadURL(2.0.0) should be absent for linux-x64")
	}
	if _, ok := r.DownloadURL(ctx, "3.0.0"); ok {
		t.Error("DownloadURL(3.0.0) should be absent")
	}

	arm, _, _ := newTestResolver(t, &fakeFetcher{data: []byte(doc)}, platform.LinuxArm64)
	if v, ok := arm.LatestRemote(ctx); !ok || v != "2.0.0" {
		t.Errorf("arm LatestRemote() = %q, %v", v, ok)
	}
}

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/version-history.json", "Cursor-Updater/1.0", 2*time.Second)
	data, err := f.Fetch(context.Background())
	if err != nil || string(data) != sampleDoc {
		t.Fatalf("Fetch() = %q, %v", data, err)
	}
	if gotUA != "Cursor-Updater/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if _, err := NewHTTPFetcher(srv.URL+"/missing", "", time.Second).Fetch(context.Background()); err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewHTTPFetcher(srv.URL, "", 50*time.Millisecond)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}
