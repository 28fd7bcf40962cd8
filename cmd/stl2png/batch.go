package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/stl2png/internal/logger"
	"github.com/Faultbox/stl2png/internal/output"
	"github.com/Faultbox/stl2png/pkg/render"
)

// batch renders input files with one shared style.
type batch struct {
	renderer *render.Renderer
	opts     *render.Options
	writer   *output.Writer

	// target overrides the output path of a single input; "-" is stdout.
	target string
	stdout io.Writer

	workers int
}

// renderAll renders inputs concurrently, at most workers at a time.
// The first failure stops new renders from starting.
func (b *batch) renderAll(ctx context.Context, inputs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))

	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return b.renderOne(input)
		})
	}
	return g.Wait()
}

// renderOne renders a single input to its output path.
func (b *batch) renderOne(input string) error {
	start := time.Now()

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	png, err := b.renderer.Render(data, b.opts)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", input, err)
	}

	dst := b.target
	switch dst {
	case "-":
		if _, err := b.stdout.Write(png); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
	case "":
		dst = b.writer.PathFor(input)
		fallthrough
	default:
		if err := b.writer.Write(dst, png); err != nil {
			return err
		}
	}

	logger.Info("rendered",
		zap.String("input", input),
		zap.String("output", dst),
		zap.Int("bytes", len(png)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
