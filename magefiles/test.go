//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the unit tests with the race detector.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Writes a coverage profile to coverage.out.
func (Test) Cover() error {
	_, err := executeCmd("go", withArgs("test", "-coverprofile=coverage.out", "./..."), withStream())
	return err
}

// Runs vet and the race-enabled tests.
func (Test) All() {
	mg.SerialDeps(Build.Vet, Test.Race)
}
