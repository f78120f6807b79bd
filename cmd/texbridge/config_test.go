package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadConfig tests decoding a file over the defaults.
func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.toml", `
backend = "soft"
angle_dir = "/usr/lib/angle"
width = 640
headless = true
log_level = "debug"
`)
	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	want := defaultConfig()
	want.Backend = "soft"
	want.AngleDir = "/usr/lib/angle"
	want.Width = 640
	want.Headless = true
	want.LogLevel = "debug"
	if cfg != want {
		t.Errorf("loadConfig() = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		explicit bool
		wantErr  string
	}{
		{"unknown key", "backend = \"soft\"\nfullscreen = true\n", true, `unknown key "fullscreen"`},
		{"bad type", "width = \"wide\"\n", true, "config"},
		{"syntax", "width = \n", false, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.toml", tt.content)
			_, err := loadConfig(path, tt.explicit)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("loadConfig() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfigMissing tests that only an explicit path must exist.
func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("loadConfig(implicit) error = %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("loadConfig(implicit) = %+v, want defaults", cfg)
	}
	if _, err := loadConfig(path, true); err == nil {
		t.Error("loadConfig(explicit) succeeded for a missing file")
	}
}

func TestConfigDir(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"xdg", map[string]string{"XDG_CONFIG_HOME": "/xdg", "HOME": "/home/u"}, "/xdg/texbridge"},
		{"home", map[string]string{"HOME": "/home/u"}, "/home/u/.config/texbridge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := configDir(getenv); got != tt.want {
				t.Errorf("configDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestFlagsOverride tests that only flags given on the command line replace
// file values.
func TestFlagsOverride(t *testing.T) {
	opt, err := parseFlags([]string{"-width", "320", "-log", "error", "-headless"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	cfg := defaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.AngleDir = "/usr/lib/angle"
	opt.apply(&cfg)

	if cfg.Width != 320 {
		t.Errorf("Width = %d, want 320", cfg.Width)
	}
	if cfg.Height != 480 {
		t.Errorf("Height = %d, want 480 (file value)", cfg.Height)
	}
	if cfg.AngleDir != "/usr/lib/angle" {
		t.Errorf("AngleDir = %q, want file value", cfg.AngleDir)
	}
	if cfg.LogLevel != "error" || !cfg.Headless {
		t.Errorf("LogLevel, Headless = %q, %v, want error, true", cfg.LogLevel, cfg.Headless)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-fullscreen"}},
		{"bad int", []string{"-width", "wide"}},
		{"extra argument", []string{"-headless", "now"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFlags(tt.args, io.Discard); err == nil {
				t.Errorf("parseFlags(%v) succeeded", tt.args)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config)
		wantErr bool
	}{
		{"defaults", func(*config) {}, false},
		{"zero width", func(c *config) { c.Width = 0 }, true},
		{"too tall", func(c *config) { c.Height = 16385 }, true},
		{"bad level", func(c *config) { c.LogLevel = "loud" }, true},
		{"png snapshot", func(c *config) { c.Snapshot = "out.PNG" }, false},
		{"tiff snapshot", func(c *config) { c.Snapshot = "out.tif" }, false},
		{"jpeg snapshot", func(c *config) { c.Snapshot = "out.jpg" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(&cfg)
			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		cfg := config{LogLevel: tt.in}
		got, err := cfg.level()
		if err != nil || got != tt.want {
			t.Errorf("level(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestSecondaryLibraries(t *testing.T) {
	cfg := config{AngleDir: "/opt/angle"}
	egl, gles := cfg.secondaryLibraries()
	if egl != "/opt/angle/libEGL.so" || gles != "/opt/angle/libGLESv2.so" {
		t.Errorf("secondaryLibraries() = %q, %q", egl, gles)
	}
}
