// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"

	"github.com/gnilk/shtest/internal/runner"
)

// moduleCounts tallies one module's case outcomes for the summary
// table (spec.md §4.9's "count executed, count failed" per module).
type moduleCounts struct {
	name             string
	executed, failed int
}

// Console is the plain-text reporting module, grounded directly on
// the original implementation's TestResult::print/print_failure
// shape: one "=== PASS/FAIL" line per executed function, followed by a
// per-library summary and a failure-line dump, all written once the
// run has finished.
type Console struct{}

func (Console) Format(w io.Writer, result ProcessResult) error {
	for _, lr := range result.LoadResults {
		if lr.Err != nil {
			fmt.Fprintf(w, "=== LOAD FAIL: %s: %v\n", lr.Path, lr.Err)
		}
	}

	for _, lib := range result.Libraries {
		fmt.Fprintf(w, "=== LIBRARY: %s\n", lib.Path)
		printOutcomeLine(w, lib.GlobalMain)

		for _, mr := range lib.ModuleResults {
			printOutcomeLine(w, mr.MainOutcome)
			for _, o := range mr.CaseResults {
				printOutcomeLine(w, &o)
			}
			printOutcomeLine(w, mr.ExitOutcome)
		}

		printOutcomeLine(w, lib.GlobalExit)

		tw := newTabWriter(w)
		executed, failed := 0, 0
		var failures []runner.Outcome
		for _, mr := range lib.ModuleResults {
			mc := moduleCounts{name: mr.Name}
			for _, o := range mr.CaseResults {
				mc.executed++
				if o.Failed() {
					mc.failed++
					failures = append(failures, o)
				}
			}
			fmt.Fprintf(tw, "%s\t%d executed\t%d failed\n", mc.name, mc.executed, mc.failed)
			executed += mc.executed
			failed += mc.failed
		}
		tw.Flush()

		fmt.Fprintf(w, "--- %s: %d executed, %d failed\n", lib.Path, executed, failed)
		if len(failures) > 0 {
			fmt.Fprintln(w, "failures:")
			for _, o := range failures {
				fmt.Fprintf(w, "  %s: %s, %s\n", failureMarker(o), o.Symbol, failureDetail(o))
			}
		}
	}
	return nil
}

func printOutcomeLine(w io.Writer, o *runner.Outcome) {
	if o == nil {
		return
	}
	if o.Failed() {
		fmt.Fprintf(w, "=== FAIL:\t%s, %s, %d\n", o.Symbol, o.Duration, o.RawReturn)
		return
	}
	fmt.Fprintf(w, "=== PASS:\t%s, %s, %d\n", o.Symbol, o.Duration, o.RawReturn)
}
