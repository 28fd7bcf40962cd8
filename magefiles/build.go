//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the stl2png binary into bin/.
func (Build) Binary() error {
	_, err := executeCmd("go", withArgs("build", "-trimpath", "-o", "bin/stl2png", "./cmd/stl2png"), withStream())
	return err
}

// Fails when gofmt would rewrite any source file.
func (Build) Fmt() error {
	out, err := executeCmd("gofmt", withArgs("-l", "cmd", "internal", "pkg", "magefiles"))
	if err != nil {
		return err
	}
	if files := strings.TrimSpace(out); files != "" {
		return fmt.Errorf("files need gofmt:\n%s", files)
	}
	return nil
}

// Runs go vet over every package.
func (Build) Vet() error {
	mg.Deps(Build.Fmt)
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
