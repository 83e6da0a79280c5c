// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"

	"github.com/gnilk/shtest/internal/runner"
)

// Markdown renders a ProcessResult as a Markdown table per library,
// grounded on cmd/greplogs's -md output mode: plain string building
// rather than a table-formatting library, since a handful of columns
// doesn't warrant one.
type Markdown struct{}

func (Markdown) Format(w io.Writer, result ProcessResult) error {
	for _, lr := range result.LoadResults {
		if lr.Err != nil {
			fmt.Fprintf(w, "**LOAD FAIL** `%s`: %v\n\n", lr.Path, lr.Err)
		}
	}

	for _, lib := range result.Libraries {
		fmt.Fprintf(w, "## %s\n\n", lib.Path)
		fmt.Fprintln(w, "| Module | Symbol | Result | Duration | Detail |")
		fmt.Fprintln(w, "|---|---|---|---|---|")

		if lib.GlobalMain != nil {
			writeMarkdownRow(w, "-", *lib.GlobalMain)
		}
		for _, mr := range lib.ModuleResults {
			if mr.MainOutcome != nil {
				writeMarkdownRow(w, mr.Name, *mr.MainOutcome)
			}
			for _, o := range mr.CaseResults {
				writeMarkdownRow(w, mr.Name, o)
			}
			if mr.ExitOutcome != nil {
				writeMarkdownRow(w, mr.Name, *mr.ExitOutcome)
			}
		}
		if lib.GlobalExit != nil {
			writeMarkdownRow(w, "-", *lib.GlobalExit)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeMarkdownRow(w io.Writer, module string, o runner.Outcome) {
	status := "PASS"
	detail := ""
	if o.Failed() {
		status = failureMarker(o)
		detail = failureDetail(o)
	}
	fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n", module, o.Symbol, status, o.Duration, detail)
}
