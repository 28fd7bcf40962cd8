// stl2png renders STL meshes to PNG images.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/stl2png/internal/config"
	"github.com/Faultbox/stl2png/internal/logger"
	"github.com/Faultbox/stl2png/internal/output"
	"github.com/Faultbox/stl2png/internal/watch"
	"github.com/Faultbox/stl2png/pkg/render"
)

// errUsage is returned for command lines that name no inputs or conflict.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("stl2png", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), `stl2png - render STL meshes to PNG

Usage:
  stl2png [options] <input.stl>...

Examples:
  stl2png -o bracket.png bracket.stl
  stl2png -config style.yaml -out-dir renders/ parts/*.stl
  stl2png -watch -camera 1,1,1 -background "#000000" -alpha 1 gear.stl

Options:`)
		fs.PrintDefaults()
	}
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	flags.Apply(cfg)

	if flags.SaveConfig != "" {
		return cfg.SaveTo(flags.SaveConfig)
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		fs.Usage()
		return fmt.Errorf("%w: no input files", errUsage)
	}
	if flags.Output != "" && len(inputs) > 1 {
		return fmt.Errorf("%w: -o takes a single input, use -out-dir for batches", errUsage)
	}
	if flags.Output == "-" && flags.Watch {
		return fmt.Errorf("%w: -watch cannot write to stdout", errUsage)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, stderr); err != nil {
		return err
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: %+v", cfg)

	opts, err := cfg.Options()
	if err != nil {
		return fmt.Errorf("style: %w", err)
	}

	b := &batch{
		renderer: render.New(render.WithLogger(logger.Named("render"))),
		opts:     opts,
		writer:   output.NewWriter(flags.OutDir),
		target:   flags.Output,
		stdout:   stdout,
		workers:  cfg.Render.Workers,
	}

	if err := b.renderAll(ctx, inputs); err != nil {
		if !flags.Watch {
			return err
		}
		logger.Warn("initial render failed, watching anyway", zap.Error(err))
	}

	if !flags.Watch {
		return nil
	}

	w, err := watch.New(inputs, watch.WithLogger(logger.Named("watch")))
	if err != nil {
		return err
	}
	return w.Run(ctx, func(path string) {
		if err := b.renderOne(path); err != nil {
			logger.Error("render failed", zap.String("input", path), zap.Error(err))
		}
	})
}
