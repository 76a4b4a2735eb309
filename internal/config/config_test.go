package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecopia-map/geo_transformer/internal/geometry"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEO_SCENE", "GEO_ZONE", "GEO_HEMISPHERE", "GEO_ANCHOR_EAST", "GEO_ANCHOR_NORTH",
		"GEO_ANCHOR_ALTITUDE", "GEO_BOUND", "GEO_PROJ_CACHE_SIZE",
	} {
		// registers the restore, then removes the key for the test
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	rs, err := cfg.ReferenceSystem()
	if err != nil {
		t.Fatalf("ReferenceSystem: %v", err)
	}
	if rs != (geometry.ReferenceSystem{Zone: 32, Hemisphere: geometry.Northern}) {
		t.Fatalf("unexpected default reference system %s", rs)
	}
	if cfg.Anchor() != geometry.NewProjectedCoordinate(566600, 5933000, 0) {
		t.Fatalf("unexpected default anchor %s", cfg.Anchor())
	}
	if cfg.Scene.Bound != 100 {
		t.Fatalf("bound=%v want 100", cfg.Scene.Bound)
	}
}

func TestLoadConfig_YAMLThenDotEnvThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	yamlPath := filepath.Join(dir, "scene.yaml")
	yamlData := `
scene:
  name: sydney
  zone: 56
  hemisphere: south
  anchor:
    east: 334000
    north: 6252000
    altitude: 12
  bound: 50
`
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEO_ANCHOR_ALTITUDE=20\nGEO_BOUND=75\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// real environment wins over .env
	t.Setenv("GEO_BOUND", "80")

	cfg, err := LoadConfig(yamlPath)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	rs, err := cfg.ReferenceSystem()
	if err != nil {
		t.Fatalf("ReferenceSystem: %v", err)
	}
	if rs != (geometry.ReferenceSystem{Zone: 56, Hemisphere: geometry.Southern}) {
		t.Fatalf("unexpected reference system %s", rs)
	}
	if cfg.Scene.Name != "sydney" {
		t.Fatalf("scene=%q", cfg.Scene.Name)
	}
	if want := geometry.NewProjectedCoordinate(334000, 6252000, 20); cfg.Anchor() != want {
		t.Fatalf("anchor=%s want %s", cfg.Anchor(), want)
	}
	if cfg.Scene.Bound != 80 {
		t.Fatalf("bound=%v want 80", cfg.Scene.Bound)
	}
	// untouched sections keep their defaults
	if cfg.Demo.ObjectName != "marker" || cfg.Projection.CacheSize != 120 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_DotEnvFillsEmptyVariables(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEO_ANCHOR_ALTITUDE=20\nGEO_ZONE=33\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// present but empty counts as unset
	t.Setenv("GEO_ANCHOR_ALTITUDE", "")
	t.Setenv("GEO_ZONE", "34")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Scene.Anchor.Altitude != 20 {
		t.Fatalf("altitude=%v want 20 from .env", cfg.Scene.Anchor.Altitude)
	}
	if cfg.Scene.Zone != 34 {
		t.Fatalf("zone=%v want 34 from the environment", cfg.Scene.Zone)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("scene: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv("GEO_ZONE", "thirty-two")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected env parse error")
	}
}

func TestConfig_InvalidZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scene.Zone = 61
	if _, err := cfg.ReferenceSystem(); !errors.Is(err, geometry.ErrInvalidZone) {
		t.Fatalf("expected ErrInvalidZone, got %v", err)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "scene.yaml")

	cfg := DefaultConfig()
	cfg.path = path
	cfg.Scene.Zone = 33
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Scene.Zone != 33 || loaded.Path() != path {
		t.Fatalf("unexpected reloaded config %+v", loaded.Scene)
	}

	if err := DefaultConfig().Save(); err == nil {
		t.Fatalf("expected error saving a config without path")
	}
}
