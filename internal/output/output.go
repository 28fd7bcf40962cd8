// Package output places rendered PNGs on disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer maps input STL paths to PNG paths and writes encoded images.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer. An empty outputDir puts each PNG next to its input.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// PathFor returns the PNG path for input: its base name with a .png extension.
func (w *Writer) PathFor(input string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".png"

	dir := w.outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// Write stores data at path. The file is written to a temporary name in the
// same directory and renamed, so readers never see a partial image.
func (w *Writer) Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return os.Rename(tmp.Name(), path)
}
