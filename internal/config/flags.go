package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/stl2png/pkg/camera"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// Flags holds CLI overrides. Only flags given on the command line are applied.
type Flags struct {
	fs *flag.FlagSet

	Config     string
	Output     string
	OutDir     string
	SaveConfig string
	Debug      bool
	LogFile    string
	Watch      bool

	width      int
	height     int
	workers    int
	alpha      float64
	position   vec3Flag
	framing    camera.FramingMode
	background rgb.Color
}

// RegisterFlags defines the stl2png flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	d := Default()

	fs.StringVar(&f.Config, "config", "", "Path to YAML or TOML style file")
	fs.StringVar(&f.Output, "o", "", "Output PNG path (single input)")
	fs.StringVar(&f.OutDir, "out-dir", "", "Output directory for batch rendering")
	fs.StringVar(&f.SaveConfig, "save-config", "", "Write the effective config as YAML and exit")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file, with rotation")
	fs.BoolVar(&f.Watch, "watch", false, "Re-render inputs when they change")

	fs.IntVar(&f.width, "width", d.Output.Width, "Image width")
	fs.IntVar(&f.height, "height", d.Output.Height, "Image height")
	fs.IntVar(&f.workers, "workers", d.Render.Workers, "Concurrent renders in batch mode")
	fs.Float64Var(&f.alpha, "alpha", d.Output.BackgroundAlpha, "Background alpha in [0,1]")
	fs.Var(&f.position, "camera", "Camera position `x,y,z`")
	fs.TextVar(&f.framing, "framing", d.Camera.Framing, "Camera framing: direction or eye")
	fs.TextVar(&f.background, "background", d.Output.BackgroundColor, "Background color #rrggbb")

	return f
}

// Apply applies the flags that were set to cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "width":
			cfg.Output.Width = f.width
		case "height":
			cfg.Output.Height = f.height
		case "workers":
			cfg.Render.Workers = f.workers
		case "alpha":
			cfg.Output.BackgroundAlpha = f.alpha
		case "background":
			cfg.Output.BackgroundColor = f.background
		case "camera":
			cfg.Camera.Position = [3]float64(f.position)
		case "framing":
			cfg.Camera.Framing = f.framing
		case "debug":
			if f.Debug {
				cfg.Logging.Level = "debug"
			}
		case "log-file":
			cfg.Logging.LogFile = f.LogFile
		}
	})
}

// vec3Flag parses "x,y,z".
type vec3Flag [3]float64

func (v *vec3Flag) String() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v[0], v[1], v[2])
}

func (v *vec3Flag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want x,y,z, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = n
	}
	return nil
}
