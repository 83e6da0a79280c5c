// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command shtest runs native shared-library test suites.
//
//	shtest [flags] [path ...]
//
// shtest discovers test entry points by inspecting a shared object's
// exported symbols, groups them into a library -> module -> case
// hierarchy, and executes each case on an isolated worker thread that
// brokers a C-ABI callback interface. See SPEC_FULL.md for the full
// design.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gnilk/shtest/internal/config"
	"github.com/gnilk/shtest/internal/dynlib"
	"github.com/gnilk/shtest/internal/nmscan"
	"github.com/gnilk/shtest/internal/report"
	"github.com/gnilk/shtest/internal/runner"
	"github.com/gnilk/shtest/internal/scan"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	paths, err := scan.Libraries(cfg.Inputs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	loader := dynlib.NewLoader()
	runners, loadResults := runner.Prescan(ctx, loader, nmscan.Command, cfg, paths)

	if cfg.List {
		for _, r := range runners {
			for _, e := range r.Listing() {
				fmt.Println(formatListEntry(e))
			}
		}
	}

	result := report.ProcessResult{LoadResults: loadResults}
	if cfg.Execute {
		for _, r := range runners {
			lr := r.Run(ctx)
			result.Libraries = append(result.Libraries, lr)
			if lr.StopAll {
				break
			}
		}
	}

	formatter := report.ForName(cfg.ReportModule)
	out, closeOut, err := openReportOutput(cfg.ReportOutput)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer closeOut()

	if err := formatter.Format(out, result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	failed := result.TotalFailed()
	if failed > 0 && !cfg.DiscardReturnCode {
		return 1
	}
	return 0
}

func formatListEntry(e runner.ListEntry) string {
	prefix := "-"
	if e.WillRun {
		prefix = "*"
	}
	role := e.Role
	if role == "" {
		role = " "
	}
	return fmt.Sprintf("%s%s %s::%s", prefix, role, e.Module, e.Case)
}

func openReportOutput(path string) (w *os.File, closeFn func(), err error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
