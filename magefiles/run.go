//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Serve builds the CLI and starts the HTTP API on :8080.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}

// Batch builds the CLI and runs every job file under jobs/, writing
// results next to each job as <name>.results.yaml.
func Batch() error {
	mg.Deps(Build, Init)
	jobs, err := filepath.Glob(filepath.Join("jobs", "*.yaml"))
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if strings.HasSuffix(job, ".results.yaml") {
			continue
		}
		out := job[:len(job)-len(filepath.Ext(job))] + ".results.yaml"
		fmt.Fprintf(os.Stdout, "[batch] %s\n", job)
		if err := sh.RunV(filepath.Join(binDir, binName), "batch", job, "--output", out); err != nil {
			return fmt.Errorf("batch %s: %w", job, err)
		}
	}
	return nil
}
