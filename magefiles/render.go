//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"

	"github.com/Faultbox/stl2png/internal/testmesh"
	"github.com/Faultbox/stl2png/pkg/math"
)

type Render mg.Namespace

// Renders a sample box into out/demo.png with the built binary.
func (Render) Demo() error {
	mg.Deps(Build.Binary)

	if err := os.MkdirAll("out", 0755); err != nil {
		return err
	}
	input := filepath.Join("out", "demo.stl")
	box := testmesh.Box(math.Vec3{X: -2, Y: -1, Z: -0.5}, math.Vec3{X: 2, Y: 1, Z: 0.5})
	if err := os.WriteFile(input, testmesh.Binary(box), 0644); err != nil {
		return err
	}

	if _, err := executeCmd(filepath.Join("bin", "stl2png"), withArgs("-out-dir", "out", input), withStream()); err != nil {
		return err
	}
	fmt.Println("wrote out/demo.png")
	return nil
}
