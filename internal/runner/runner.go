// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner implements the per-library test orchestrator: symbol
// classification into globals and modules, dependency-aware case
// execution on isolated worker goroutines, and result aggregation.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gnilk/shtest/internal/catalog"
	"github.com/gnilk/shtest/internal/classify"
	"github.com/gnilk/shtest/internal/config"
	"github.com/gnilk/shtest/internal/dynlib"
	"github.com/gnilk/shtest/internal/nmscan"
)

// ErrLibraryLoad wraps a LoadError surfaced by Open (and so by
// Prescan) for one input path: the library failed to open, so it
// contributes no result at all (spec.md §4.8 step 1).
var ErrLibraryLoad = errors.New("runner: failed to load library")

// LoadResult is the per-library outcome of opening a path and building
// its symbol catalog, reported to the CLI independently of case
// Outcomes (SPEC_FULL.md §3).
type LoadResult struct {
	Path string
	Err  error
}

// LibraryResult is everything Run produces for one successfully
// opened library.
type LibraryResult struct {
	Path          string
	GlobalMain    *Outcome
	GlobalExit    *Outcome
	ModuleResults []ModuleResult
	Listing       []ListEntry
	StopAll       bool
}

// ListEntry is one line of listing-mode output (spec.md §4.8 step 3):
// the catalog printed with execution prefixes, never resolved.
type ListEntry struct {
	Symbol string
	Module string
	Case   string
	// WillRun reports whether this symbol would execute under the
	// current selection filters ("*" in the listing), as opposed to
	// being skipped ("-").
	WillRun bool
	// Role is "m" for a main function, "e" for an exit function, or
	// "" for a regular case.
	Role string
}

// Runner drives one opened library: classify its catalog, run globals,
// run every module, aggregate a LibraryResult (spec.md §4.8).
type Runner struct {
	path    string
	handle  dynlib.Handle
	cfg     *config.Config
	lister  nmscan.Lister
	modules map[string]*module
	order   []string
	globalMain *testFunc
	globalExit *testFunc
}

// Open loads path via loader, runs the symbol lister, and classifies
// every discovered symbol into globals and modules (spec.md §4.8 steps
// 1-2). The returned Runner has not executed anything yet.
func Open(ctx context.Context, loader dynlib.Loader, lister nmscan.Lister, cfg *config.Config, path string) (*Runner, error) {
	handle, err := loader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryLoad, path, err)
	}

	out, err := lister(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryLoad, path, err)
	}

	symbols, err := catalog.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryLoad, path, err)
	}

	r := &Runner{
		path:    path,
		handle:  handle,
		cfg:     cfg,
		lister:  lister,
		modules: make(map[string]*module),
	}
	r.classify(symbols)
	return r, nil
}

// classify files every symbol into globals or the correct Module,
// creating Modules on first reference (spec.md §4.8 step 2).
func (r *Runner) classify(symbols []string) {
	for _, sym := range symbols {
		c, err := classify.Symbol(sym, r.cfg.MainFuncName, r.cfg.ExitFuncName)
		if err != nil {
			continue // rejected: doesn't match the test naming grammar
		}
		f := newTestFunc(c)

		if c.Scope == classify.ScopeGlobal {
			switch c.Type {
			case classify.TypeMain:
				r.globalMain = f
			case classify.TypeExit:
				r.globalExit = f
			}
			continue
		}

		m, ok := r.modules[c.Module]
		if !ok {
			m = newModule(c.Module)
			r.modules[c.Module] = m
			r.order = append(r.order, c.Module)
		}
		switch c.Type {
		case classify.TypeMain:
			m.main = f
		case classify.TypeExit:
			m.exit = f
		default:
			m.addCase(f)
		}
	}
	sort.Strings(r.order)
}

// Listing builds the listing-mode view of this library's catalog
// without ever calling Resolve (spec.md §4.8 step 3): "*" marks a
// symbol that would run under the current filters, "-" one that would
// be skipped, and Role distinguishes main/exit from regular cases.
func (r *Runner) Listing() []ListEntry {
	var entries []ListEntry
	if r.globalMain != nil {
		entries = append(entries, ListEntry{
			Symbol: r.globalMain.Symbol, Module: classify.NoModule, Case: r.globalMain.Case,
			Role: "m", WillRun: r.cfg.TestGlobalMain,
		})
	}
	for _, name := range r.order {
		m := r.modules[name]
		if m.main != nil {
			entries = append(entries, ListEntry{
				Symbol: m.main.Symbol, Module: name, Case: m.main.Case,
				Role: "m", WillRun: r.cfg.TestGlobals && r.cfg.MatchesModule(name),
			})
		}
		for _, c := range m.cases {
			entries = append(entries, ListEntry{
				Symbol: c.Symbol, Module: name, Case: c.Case,
				WillRun: r.cfg.TestGlobals && r.cfg.MatchesModule(name) && r.cfg.MatchesCase(c.Case),
			})
		}
		if m.exit != nil {
			entries = append(entries, ListEntry{
				Symbol: m.exit.Symbol, Module: name, Case: m.exit.Case,
				Role: "e", WillRun: r.cfg.TestGlobals && r.cfg.MatchesModule(name),
			})
		}
	}
	if r.globalExit != nil {
		entries = append(entries, ListEntry{
			Symbol: r.globalExit.Symbol, Module: classify.NoModule, Case: r.globalExit.Case,
			Role: "e", WillRun: r.cfg.TestGlobalMain,
		})
	}
	return entries
}

// Run executes this library's globals and modules per spec.md §4.8
// step 4: global main, then every module in stable order, then global
// exit, short-circuiting on FailAll/stop_on_all_fail.
func (r *Runner) Run(ctx context.Context) LibraryResult {
	result := LibraryResult{Path: r.path}

	if r.globalMain != nil && r.cfg.TestGlobalMain {
		r.globalMain.execute(execParams{handle: r.handle, cfg: r.cfg})
		outcome := r.globalMain.outcome
		result.GlobalMain = &outcome
		if outcome.Classified == FailAll && r.cfg.StopOnAllFail {
			result.StopAll = true
			r.runGlobalExit(&result)
			return result
		}
	}

	for _, name := range r.order {
		if ctx.Err() != nil {
			result.StopAll = true
			break
		}
		m := r.modules[name]
		if !r.cfg.TestGlobals || !r.cfg.MatchesModule(name) {
			continue
		}
		mr := m.execute(r.handle, r.cfg)
		result.ModuleResults = append(result.ModuleResults, mr)
		if mr.StopAll {
			result.StopAll = true
			break
		}
	}

	r.runGlobalExit(&result)
	return result
}

func (r *Runner) runGlobalExit(result *LibraryResult) {
	if r.globalExit == nil || !r.cfg.TestGlobalMain {
		return
	}
	r.globalExit.execute(execParams{handle: r.handle, cfg: r.cfg})
	outcome := r.globalExit.outcome
	result.GlobalExit = &outcome
}

// Prescan opens and classifies every library in paths concurrently —
// nm invocation has no ordering invariant, unlike execution, which
// must stay strictly serial within (and, per stop_on_all_fail, across)
// libraries. This is the one place this package uses errgroup.
func Prescan(ctx context.Context, loader dynlib.Loader, lister nmscan.Lister, cfg *config.Config, paths []string) ([]*Runner, []LoadResult) {
	runners := make([]*Runner, len(paths))
	loadResults := make([]LoadResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			r, err := Open(gctx, loader, lister, cfg, path)
			if err != nil {
				loadResults[i] = LoadResult{Path: path, Err: err}
				log.Printf("shtest: %v", err)
				return nil // one library's load failure must not cancel the others
			}
			runners[i] = r
			loadResults[i] = LoadResult{Path: path}
			return nil
		})
	}
	_ = g.Wait() // errors are carried in loadResults, never returned: see above

	var opened []*Runner
	for _, r := range runners {
		if r != nil {
			opened = append(opened, r)
		}
	}
	return opened, loadResults
}
