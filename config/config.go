package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/Carmen-Shannon/kartina/common"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the override file looked up in the working directory.
const DefaultPath = "kartina.yml"

// WindowCfg holds the window settings.
type WindowCfg struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// SphereCfg holds the tessellation settings.
type SphereCfg struct {
	Radius  float32 `yaml:"radius"`
	Stacks  int     `yaml:"stacks"`
	Sectors int     `yaml:"sectors"`
}

// RenderCfg holds the surface and loop settings.
type RenderCfg struct {
	PresentMode    string     `yaml:"present_mode"` // "vsync" | "uncapped"
	ClearColor     [4]float64 `yaml:"clear_color"`
	FrameLimit     float64    `yaml:"frame_limit"` // ticks per second, 0 = uncapped
	ForceSoftware  bool       `yaml:"force_software"`
	RecolorWorkers int        `yaml:"recolor_workers"` // 0 = GOMAXPROCS
	Profiling      bool       `yaml:"profiling"`
}

// AudioCfg holds the track settings.
type AudioCfg struct {
	Path     string `yaml:"path"`
	Muted    bool   `yaml:"muted"`
	Progress bool   `yaml:"progress"`
}

// Config is the process configuration.
type Config struct {
	Audio  AudioCfg  `yaml:"audio"`
	Window WindowCfg `yaml:"window"`
	Sphere SphereCfg `yaml:"sphere"`
	Render RenderCfg `yaml:"render"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Audio: AudioCfg{Path: "./song/track.mp3"},
		Window: WindowCfg{
			Title:  "Kartina",
			Width:  1280,
			Height: 720,
		},
		Sphere: SphereCfg{Radius: 1.0, Stacks: 18, Sectors: 36},
		Render: RenderCfg{
			PresentMode: "vsync",
			ClearColor:  [4]float64{1, 1, 1, 1},
		},
	}
}

// Load returns the defaults overridden by the YAML file at path.
// A missing file is not an error.
//
// Parameters:
//   - path: the override file, usually DefaultPath
//
// Returns:
//   - Config: the effective configuration
//   - error: an error if the file exists but cannot be read or parsed, or holds invalid values
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", path, err)
	}
	c.fill()
	if err := c.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("[Config] loaded overrides from %s", path)
	return c, nil
}

// Validate checks values that cannot be defaulted.
//
// Returns:
//   - error: the first invalid value found
func (c Config) Validate() error {
	switch c.Render.PresentMode {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("unknown present_mode %q", c.Render.PresentMode)
	}
	if c.Sphere.Radius <= 0 {
		return fmt.Errorf("sphere radius must be positive, got %v", c.Sphere.Radius)
	}
	if c.Sphere.Stacks < 0 || c.Sphere.Sectors < 0 {
		return fmt.Errorf("negative tessellation %dx%d", c.Sphere.Stacks, c.Sphere.Sectors)
	}
	if c.Render.FrameLimit < 0 {
		return fmt.Errorf("negative frame_limit %v", c.Render.FrameLimit)
	}
	return nil
}

// fill restores defaults for fields the file blanked out.
func (c *Config) fill() {
	d := Default()
	c.Audio.Path = common.Coalesce(c.Audio.Path, d.Audio.Path)
	c.Window.Title = common.Coalesce(c.Window.Title, d.Window.Title)
	c.Window.Width = common.Coalesce(c.Window.Width, d.Window.Width)
	c.Window.Height = common.Coalesce(c.Window.Height, d.Window.Height)
	c.Sphere.Stacks = common.Coalesce(c.Sphere.Stacks, d.Sphere.Stacks)
	c.Sphere.Sectors = common.Coalesce(c.Sphere.Sectors, d.Sphere.Sectors)
	c.Render.PresentMode = common.Coalesce(c.Render.PresentMode, d.Render.PresentMode)
}
