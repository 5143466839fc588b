package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dcrodman/rupeepatch/internal/content"
	"github.com/dcrodman/rupeepatch/internal/patcher"
	"github.com/dcrodman/rupeepatch/internal/rupee"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Variant() != patcher.Vanilla {
		t.Errorf("Variant() = %v, want vanilla", cfg.Variant())
	}
	if diff := cmp.Diff([]string{"RupeeReplacer.dll"}, cfg.RequiredFiles); diff != "" {
		t.Errorf("RequiredFiles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(content.DefaultSettings(), cfg.ContentSettings()); diff != "" {
		t.Errorf("ContentSettings() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Database.Engine != "sqlite" || cfg.Marker.Name != "RupeeReplacerPatched" {
		t.Errorf("unexpected defaults: engine=%q marker=%q", cfg.Database.Engine, cfg.Marker.Name)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := writeConfig(t, `
exe_path: /games/terraria/Terraria.exe
variant: tModLoader
required_files: [RupeeReplacer.dll, Newtonsoft.Json.dll]
supported_versions:
  tmodloader:
    low: 1.3.5.0
content:
  assets_dir: sprites
  gold: yellow
  coin_ring: false
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	opts := cfg.PatchOptions()
	wantOpts := patcher.Options{
		ExePath:       "/games/terraria/Terraria.exe",
		BackupPath:    "/games/terraria/Terraria.exe.bak",
		Variant:       patcher.ModLoader,
		HookType:      patcher.DefaultHookType,
		AppDir:        dir,
		RequiredFiles: []string{"RupeeReplacer.dll", "Newtonsoft.Json.dll"},
		Supported:     patcher.VersionRange{Low: "1.3.5.0", High: "1.3.5.1"},
	}
	wantOpts.Marker.Type = "Main"
	wantOpts.Marker.Name = "RupeeReplacerPatched"
	if diff := cmp.Diff(wantOpts, opts); diff != "" {
		t.Errorf("PatchOptions() mismatch (-want +got):\n%s", diff)
	}

	copts := cfg.ContentOptions()
	if copts.ContentDir != "/games/terraria/Content" || copts.BackupDir != "/games/terraria/BackupContent" {
		t.Errorf("ContentOptions() dirs = %q, %q", copts.ContentDir, copts.BackupDir)
	}
	if copts.AssetsDir != filepath.Join(dir, "sprites") {
		t.Errorf("ContentOptions().AssetsDir = %q", copts.AssetsDir)
	}
	if copts.Settings.Palette.Gold != rupee.Yellow || copts.Settings.CoinRing {
		t.Errorf("ContentOptions().Settings = %+v", copts.Settings)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("RUPEEPATCH_DATABASE_ENGINE", "postgres")
	t.Setenv("RUPEEPATCH_CONTENT_PLATINUM", "Orange")

	cfg, err := LoadConfig(writeConfig(t, "database:\n  engine: sqlite\n"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.Engine != "postgres" {
		t.Errorf("Database.Engine = %q, want postgres", cfg.Database.Engine)
	}
	if cfg.ContentSettings().Palette.Platinum != rupee.Orange {
		t.Errorf("Palette.Platinum = %v, want Orange", cfg.ContentSettings().Palette.Platinum)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "variant", yaml: "variant: xbox\n", want: "variant"},
		{name: "colour", yaml: "content:\n  silver: copper\n", want: "content.silver"},
		{name: "syntax", yaml: "exe_path: [\n", want: "reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfig() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Engine = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode="
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_QualifiedPath(t *testing.T) {
	cfg := &Config{configDir: "/etc/rupeepatch"}
	tests := map[string]string{
		"rupeepatch.db": "/etc/rupeepatch/rupeepatch.db",
		"/var/lib/x.db": "/var/lib/x.db",
	}
	for in, want := range tests {
		if got := cfg.QualifiedPath(in); got != want {
			t.Errorf("QualifiedPath(%q) = %q, want %q", in, got, want)
		}
	}
	if got := (&Config{}).QualifiedPath("a.db"); got != "a.db" {
		t.Errorf("QualifiedPath() without config dir = %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.LogLevel = "loud"
	if _, err := NewLogger(cfg); err == nil {
		t.Error("NewLogger() accepted an invalid level")
	}

	cfg.Logging.LogLevel = "info"
	cfg.Logging.LogFilePath = filepath.Join(t.TempDir(), "rupeepatch.log")
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Debugw("hidden")
	logger.Infow("patched", "variant", "vanilla")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.Logging.LogFilePath)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); !strings.Contains(got, "INFO") || !strings.Contains(got, "patched") || strings.Contains(got, "hidden") {
		t.Errorf("unexpected log contents: %q", got)
	}
}
