//go:build mage

// Package main provides build targets for the tracker project using Mage.
//
// Usage:
//
//	mage build        Compile server and trackerctl to bin/
//	mage test         Run unit tests
//	mage integration  Run integration tests (needs Docker)
//	mage e2e          Run the Gherkin scenarios against TRACKER_E2E_BASE_URL
//	mage lint         Run golangci-lint
//	mage generate     Regenerate mocks
//	mage clean        Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binaryDir = "bin"

var binaries = map[string]string{
	"tracker":    "./cmd/server",
	"trackerctl": "./cmd/trackerctl",
}

// Build compiles every binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	for name, pkg := range binaries {
		if err := sh.RunV("go", "build", "-o", filepath.Join(binaryDir, name), pkg); err != nil {
			return err
		}
	}
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "-race", "-short", "./...")
}

// Integration runs the testcontainers suites.
func Integration() error {
	mg.Deps(Build)
	return sh.RunV("go", "test", "-tags", "integration", "-count=1", "./...")
}

// E2E runs the godog scenarios in the e2e module against a seeded server.
func E2E() error {
	return sh.RunWithV(map[string]string{"GOWORK": "off"}, "go", "-C", "e2e", "test", "-count=1", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Generate runs go generate (mockgen).
func Generate() error {
	return sh.RunV("go", "generate", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}
