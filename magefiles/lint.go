//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Lint groups the lint and format targets.
type Lint mg.Namespace

// lintTool is one external tool in the pipeline.
type lintTool struct {
	name string
	args []string
}

// pipeline is the sequence lint:all runs. Order matters: formatters
// first so the linters see formatted code.
var pipeline = []lintTool{
	{"gofumpt", []string{"-l", "-w", "."}},
	{binGo, []string{"vet", "./..."}},
	{"golangci-lint", []string{"run", "./..."}},
}

// Run runs golangci-lint.
func (Lint) Run() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Fmt rewrites the tree with gofumpt.
func (Lint) Fmt() error {
	return sh.RunV("gofumpt", "-l", "-w", ".")
}

// Vet runs go vet.
func (Lint) Vet() error {
	return sh.RunV(binGo, "vet", "./...")
}

// All runs the full pipeline, reporting per-tool results at the end.
// A missing tool is reported and skipped rather than aborting the run.
func (Lint) All() error {
	type outcome struct {
		tool     string
		status   string
		duration time.Duration
	}

	var results []outcome
	failures := 0

	for _, tool := range pipeline {
		if tool.name != binGo {
			if _, err := exec.LookPath(tool.name); err != nil {
				fmt.Printf("-- %s: not installed, skipping\n", tool.name)
				results = append(results, outcome{tool.name, "missing", 0})
				continue
			}
		}

		fmt.Printf("-- %s %v\n", tool.name, tool.args)
		start := time.Now()
		err := sh.RunV(tool.name, tool.args...)
		elapsed := time.Since(start).Round(time.Millisecond)

		if err != nil {
			results = append(results, outcome{tool.name, "FAIL", elapsed})
			failures++
			continue
		}
		results = append(results, outcome{tool.name, "ok", elapsed})
	}

	fmt.Println()
	fmt.Printf("%-15s %-8s %s\n", "TOOL", "STATUS", "TIME")
	for _, r := range results {
		fmt.Printf("%-15s %-8s %s\n", r.tool, r.status, r.duration)
	}

	if failures > 0 {
		return fmt.Errorf("%d lint tools reported problems", failures)
	}
	return nil
}
