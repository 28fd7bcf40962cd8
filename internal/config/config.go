// Package config handles stl2png style and runtime configuration.
package config

import (
	"runtime"

	"github.com/Faultbox/stl2png/pkg/camera"
	"github.com/Faultbox/stl2png/pkg/render"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// Config holds a render style plus CLI runtime settings.
//
// Lights, Materials and EdgeMaterials stay nil unless a file sets them; nil
// keeps the renderer defaults while an empty list renders none.
type Config struct {
	Output        OutputConfig  `yaml:"output" toml:"output"`
	Camera        CameraConfig  `yaml:"camera" toml:"camera"`
	Lights        LightList     `yaml:"lights,omitempty" toml:"lights"`
	Materials     MaterialList  `yaml:"materials,omitempty" toml:"materials"`
	EdgeMaterials MaterialList  `yaml:"edge_materials,omitempty" toml:"edge_materials"`
	Logging       LoggingConfig `yaml:"logging" toml:"logging"`
	Render        RenderConfig  `yaml:"render" toml:"render"`

	// dir is the directory of the loaded file; texture paths resolve against it.
	dir string
}

// OutputConfig holds image size and background.
type OutputConfig struct {
	Width           int       `yaml:"width" toml:"width"`
	Height          int       `yaml:"height" toml:"height"`
	BackgroundColor rgb.Color `yaml:"background_color" toml:"background_color"`
	BackgroundAlpha float64   `yaml:"background_alpha" toml:"background_alpha"`
}

// CameraConfig holds camera placement.
type CameraConfig struct {
	Position [3]float64         `yaml:"position" toml:"position"`
	Framing  camera.FramingMode `yaml:"framing" toml:"framing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// RenderConfig holds batch settings.
type RenderConfig struct {
	Workers int `yaml:"workers" toml:"workers"`
}

// Default returns a Config matching the renderer defaults.
func Default() *Config {
	d := render.Defaults()
	return &Config{
		Output: OutputConfig{
			Width:           d.Width,
			Height:          d.Height,
			BackgroundColor: d.BackgroundColor,
			BackgroundAlpha: d.BackgroundAlpha,
		},
		Camera: CameraConfig{
			Position: [3]float64{d.CameraPosition.X, d.CameraPosition.Y, d.CameraPosition.Z},
			Framing:  d.Framing,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Render: RenderConfig{
			Workers: min(runtime.NumCPU(), 4),
		},
	}
}
