package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lixenwraith/trellis/terminal"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trellis.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.MaxFPS != 60 || cfg.Engine.QueueSize != 1024 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
[display]
max_fps = 30
color_mode = "truecolor"
background = "#101820"

[style]
sheets = ["base.tcss", "dark.tcss"]

[style.variables]
accent = "#ff8800"

[logging]
debug = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.MaxFPS != 30 || cfg.Display.ColorModeValue() != terminal.ColorModeTrueColor {
		t.Errorf("display = %+v", cfg.Display)
	}
	if cfg.Display.Foreground != "#c0c0c0" {
		t.Errorf("unset foreground should keep its default, got %q", cfg.Display.Foreground)
	}
	if len(cfg.Style.Sheets) != 2 || cfg.Style.Variables["accent"] != "#ff8800" {
		t.Errorf("style = %+v", cfg.Style)
	}
	if !cfg.Logging.Debug || cfg.Logging.Dir != "logs" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	base, err := cfg.Display.Base()
	if err != nil {
		t.Fatal(err)
	}
	if base.Bg != (terminal.RGB{R: 0x10, G: 0x18, B: 0x20}) || base.Rune != ' ' {
		t.Errorf("base = %+v", base)
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeFile(t, "[display\nmax_fps = 30\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Load = %v, want parse error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"fps zero", func(c *Config) { c.Display.MaxFPS = 0 }, "display.max_fps"},
		{"fps huge", func(c *Config) { c.Display.MaxFPS = 5000 }, "display.max_fps"},
		{"color mode", func(c *Config) { c.Display.ColorMode = "16" }, "display.color_mode"},
		{"background", func(c *Config) { c.Display.Background = "navy" }, "display.background"},
		{"queue", func(c *Config) { c.Engine.QueueSize = 0 }, "engine.queue_size"},
		{"variable name", func(c *Config) { c.Style.Variables["$accent"] = "red" }, "style.variables"},
		{"log size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Display.MaxFPS = 0
	cfg.Engine.QueueSize = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "max_fps") || !strings.Contains(err.Error(), "queue_size") {
		t.Errorf("Validate() = %v, want both errors", err)
	}
}

func TestSaveLoadKeepsSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Style.Sheets = []string{"app.tcss"}
	cfg.Display.MaxFPS = 24
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Display.MaxFPS != 24 || len(got.Style.Sheets) != 1 || got.Style.Sheets[0] != "app.tcss" {
		t.Errorf("loaded %+v", got)
	}
}
