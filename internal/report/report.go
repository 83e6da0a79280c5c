// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report formats a run's aggregated results for a human,
// either as plain console text (the original implementation's
// println!-based ResultSummary/TestResult.print shape) or as a
// Markdown table, grounded on cmd/greplogs's -md output mode.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gnilk/shtest/internal/runner"
)

// ProcessResult is the run-wide aggregate a Formatter renders: every
// opened library's results plus the libraries that failed to load
// (SPEC_FULL.md §3).
type ProcessResult struct {
	Libraries   []runner.LibraryResult
	LoadResults []runner.LoadResult
}

// TotalFailed counts every failed case/global outcome across all
// libraries, plus one per library that failed to load. Used by
// cmd/shtest for the process exit code.
func (p ProcessResult) TotalFailed() int {
	n := 0
	for _, lr := range p.LoadResults {
		if lr.Err != nil {
			n++
		}
	}
	for _, lib := range p.Libraries {
		if lib.GlobalMain != nil && lib.GlobalMain.Failed() {
			n++
		}
		if lib.GlobalExit != nil && lib.GlobalExit.Failed() {
			n++
		}
		for _, mr := range lib.ModuleResults {
			n += countModuleFailures(mr)
		}
	}
	return n
}

func countModuleFailures(mr runner.ModuleResult) int {
	n := 0
	if mr.MainOutcome != nil && mr.MainOutcome.Failed() {
		n++
	}
	if mr.ExitOutcome != nil && mr.ExitOutcome.Failed() {
		n++
	}
	for _, o := range mr.CaseResults {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Formatter renders a ProcessResult to w (spec.md §4.9, reporting
// module selected by the -R config knob).
type Formatter interface {
	Format(w io.Writer, result ProcessResult) error
}

// ForName returns the Formatter named by the -R flag; unknown names
// fall back to console, matching the original's default behavior of
// always producing *some* report rather than failing the run over a
// typo'd flag.
func ForName(name string) Formatter {
	if name == "markdown" {
		return Markdown{}
	}
	return Console{}
}

// failureMarker is the [Tma]/[tMa]/[tmA]/[tma] axis notation from the
// original TestResult::print_failure: uppercase marks which axis
// (test/module/all) actually triggered the failure.
func failureMarker(o runner.Outcome) string {
	if o.SymbolError != nil {
		return "[tma]"
	}
	if o.FuncError != nil {
		return "[Tma]"
	}
	switch o.Classified {
	case runner.Fail:
		return "[Tma]"
	case runner.FailModule:
		return "[tMa]"
	case runner.FailAll:
		return "[tmA]"
	default:
		return "[tma]"
	}
}

func failureDetail(o runner.Outcome) string {
	if o.SymbolError != nil {
		return o.SymbolError.Error()
	}
	if o.FuncError != nil {
		return fmt.Sprintf("%s:%d: %s", o.FuncError.File, o.FuncError.Line, o.FuncError.Message)
	}
	return fmt.Sprintf("raw=%d", o.RawReturn)
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
