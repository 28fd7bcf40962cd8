package main

import (
	"bytes"
	"context"
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/stl2png/internal/testmesh"
	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/render"
)

func writeCube(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testmesh.Binary(testmesh.UnitCube()), 0644))
	return path
}

func TestRunSingleOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeCube(t, dir, "cube.stl")
	out := filepath.Join(dir, "renders", "cube-front.png")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", out, "-width", "120", "-height", "90", input}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 90, cfg.Height)
}

func TestRunStdout(t *testing.T) {
	input := writeCube(t, t.TempDir(), "cube.stl")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", "-", "-width", "32", "-height", "32", input}, &stdout, &stderr)
	require.NoError(t, err)

	img, err := png.Decode(&stdout)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeCube(t, dir, "a.stl"),
		writeCube(t, dir, "b.stl"),
		writeCube(t, dir, "c.stl"),
	}
	outDir := filepath.Join(dir, "out")

	args := append([]string{"-out-dir", outDir, "-workers", "2", "-width", "40", "-height", "30"}, inputs...)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

func TestRunMatchesLibrary(t *testing.T) {
	dir := t.TempDir()
	input := writeCube(t, dir, "cube.stl")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-o", "-", "-camera", "1,1,1", input}, &stdout, &stderr))

	want, err := render.Render(testmesh.Binary(testmesh.UnitCube()), &render.Options{
		CameraPosition: &math.Vec3{X: 1, Y: 1, Z: 1},
	})
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, stdout.Bytes()), "CLI output differs from library output")
}

func TestRunStyleFile(t *testing.T) {
	dir := t.TempDir()
	input := writeCube(t, dir, "cube.stl")
	style := filepath.Join(dir, "style.yaml")
	require.NoError(t, os.WriteFile(style, []byte(`
output: {width: 50, height: 20}
materials:
  - {type: basic, opacity: 0.7, color: "#3097d1"}
edge_materials:
  - {type: edge, width: 0.3, color: "#287dad"}
`), 0644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", style, "-height", "25", "-o", "-", input}, &stdout, &stderr))

	cfg, err := png.DecodeConfig(&stdout)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height, "flags override the style file")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	cube := writeCube(t, dir, "cube.stl")
	garbage := filepath.Join(dir, "garbage.stl")
	require.NoError(t, os.WriteFile(garbage, []byte("not an stl"), 0644))

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no inputs", nil, errUsage},
		{"-o with batch", []string{"-o", "x.png", cube, cube}, errUsage},
		{"malformed", []string{"-out-dir", dir, garbage}, render.ErrMalformedInput},
		{"bad config", []string{"-width", "0", "-out-dir", dir, cube}, render.ErrInvalidConfiguration},
		{"help", []string{"-h"}, flag.ErrHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunMissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-o", "-", filepath.Join(t.TempDir(), "missing.stl")}, &stdout, &stderr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-save-config", path, "-width", "300"}, &stdout, &stderr))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "width: 300")
}
