// Package config loads trellis settings from a TOML file
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"

	"github.com/lixenwraith/trellis/terminal"
)

// Config represents the trellis.toml configuration file
type Config struct {
	Display DisplayConfig `toml:"display"`
	Engine  EngineConfig  `toml:"engine"`
	Style   StyleConfig   `toml:"style"`
	Logging LoggingConfig `toml:"logging"`
}

type DisplayConfig struct {
	// Frame rate cap
	MaxFPS int `toml:"max_fps"`
	// auto, 256 or truecolor
	ColorMode string `toml:"color_mode"`
	// Base cell colors as #rrggbb
	Foreground string `toml:"foreground"`
	Background string `toml:"background"`
}

type EngineConfig struct {
	// Message queue capacity, rounded up to a power of two
	QueueSize int `toml:"queue_size"`
}

// StyleConfig lists stylesheets applied in order and theme variable overrides
type StyleConfig struct {
	Sheets    []string          `toml:"sheets"`
	Variables map[string]string `toml:"variables"`
}

type LoggingConfig struct {
	Debug bool `toml:"debug"`
	// Directory holding the log file
	Dir string `toml:"dir"`
	// Rotate the log file past this size
	MaxSizeMB int `toml:"max_size_mb"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Display: DisplayConfig{
			MaxFPS:     60,
			ColorMode:  "auto",
			Foreground: "#c0c0c0",
			Background: "#000000",
		},
		Engine: EngineConfig{
			QueueSize: 1024,
		},
		Style: StyleConfig{
			Variables: map[string]string{},
		},
		Logging: LoggingConfig{
			Dir:       "logs",
			MaxSizeMB: 10,
		},
	}
}

// Load reads path over the defaults
// A missing file is not an error; the defaults are returned
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("failed to parse %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Style.Variables == nil {
		cfg.Style.Variables = map[string]string{}
	}

	return cfg, cfg.Validate()
}

// Save writes cfg to path
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid field
func (c Config) Validate() error {
	var errs []error
	if c.Display.MaxFPS < 1 || c.Display.MaxFPS > 1000 {
		errs = append(errs, fmt.Errorf("display.max_fps: %d out of range 1-1000", c.Display.MaxFPS))
	}
	switch strings.ToLower(c.Display.ColorMode) {
	case "", "auto", "256", "truecolor", "true", "24bit":
	default:
		errs = append(errs, fmt.Errorf("display.color_mode: unknown mode %q", c.Display.ColorMode))
	}
	if _, err := parseHex(c.Display.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("display.foreground: %w", err))
	}
	if _, err := parseHex(c.Display.Background); err != nil {
		errs = append(errs, fmt.Errorf("display.background: %w", err))
	}
	if c.Engine.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("engine.queue_size: must be positive, got %d", c.Engine.QueueSize))
	}
	for name := range c.Style.Variables {
		if name == "" || strings.HasPrefix(name, "$") {
			errs = append(errs, fmt.Errorf("style.variables: invalid name %q, omit the '$'", name))
		}
	}
	if c.Logging.MaxSizeMB < 1 {
		errs = append(errs, fmt.Errorf("logging.max_size_mb: must be positive, got %d", c.Logging.MaxSizeMB))
	}
	return errors.Join(errs...)
}

// ColorModeValue resolves the configured mode, detecting from the environment for auto
func (d DisplayConfig) ColorModeValue() terminal.ColorMode {
	return terminal.ParseColorMode(d.ColorMode)
}

// Base returns the cell every frame starts from
func (d DisplayConfig) Base() (terminal.Cell, error) {
	fg, err := parseHex(d.Foreground)
	if err != nil {
		return terminal.Cell{}, fmt.Errorf("foreground: %w", err)
	}
	bg, err := parseHex(d.Background)
	if err != nil {
		return terminal.Cell{}, fmt.Errorf("background: %w", err)
	}
	return terminal.Cell{Rune: ' ', Fg: fg, Bg: bg}, nil
}

func parseHex(s string) (terminal.RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return terminal.RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return terminal.RGB{R: r, G: g, B: b}, nil
}
