package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"cursor-keeper/internal/config"
	"cursor-keeper/internal/models"
	"cursor-keeper/services"

	"github.com/gin-gonic/gin"
)

func writeConfig(t *testing.T, path, pointer string) {
	t.Helper()
	content := "paths:\n  pointer: " + pointer + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newReloadRouter(t *testing.T, path string) (*gin.Engine, *services.Server) {
	t.Helper()
	if err := config.SetConfigFile(path); err != nil {
		t.Fatalf("SetConfigFile() error = %v", err)
	}
	t.Cleanup(func() { _ = config.SetConfigFile("") })

	gin.SetMode(gin.TestMode)
	srv := services.NewServer(&config.Config, services.NewUpdateManager(config.Current()))
	r := gin.New()
	NewAPIController(srv).RegisterRoutes(r)
	return r, srv
}

func TestReloadRebuildsManager(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	oldPointer := filepath.Join(dir, "old", "cursor.AppImage")
	newPointer := filepath.Join(dir, "new", "cursor.AppImage")
	writeConfig(t, path, oldPointer)

	r, srv := newReloadRouter(t, path)
	if got := srv.Updates().Settings().PointerPath; got != oldPointer {
		t.Fatalf("pointer before reload = %s", got)
	}

	writeConfig(t, path, newPointer)
	if code := do(t, r, http.MethodPost, "/api/v1/reload", nil); code != http.StatusOK {
		t.Fatalf("reload status code %d", code)
	}
	if got := srv.Updates().Settings().PointerPath; got != newPointer {
		t.Errorf("pointer after reload = %s, want %s", got, newPointer)
	}
	if got := services.GetUpdateManager().Settings().PointerPath; got != newPointer {
		t.Errorf("shared manager pointer = %s, want %s", got, newPointer)
	}
}

func TestReloadBrokenConfigKeepsManager(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	pointer := filepath.Join(dir, "bin", "cursor.AppImage")
	writeConfig(t, path, pointer)

	r, srv := newReloadRouter(t, path)
	before := srv.Updates()

	if err := os.WriteFile(path, []byte("paths: [unclosed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var e models.ErrorResponse
	if code := do(t, r, http.MethodPost, "/api/v1/reload", &e); code != http.StatusInternalServerError || e.Code != "config.reload_failed" {
		t.Errorf("broken config: %d %+v", code, e)
	}
	if srv.Updates() != before {
		t.Error("manager replaced after failed reload")
	}
}
