// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gnilk/shtest/internal/broker"
	"github.com/gnilk/shtest/internal/config"
	"github.com/gnilk/shtest/internal/dynlib"
)

// nmLines builds a fixed-order, fake nm listing for the given symbols,
// so tests control case insertion order directly instead of relying on
// FakeLoader.Symbols's map iteration order.
func nmLines(symbols ...string) []byte {
	var b strings.Builder
	for i, s := range symbols {
		fmt.Fprintf(&b, "%016x T %s\n", i+1, s)
	}
	return []byte(b.String())
}

func fixedLister(out []byte) func(context.Context, string) ([]byte, error) {
	return func(context.Context, string) ([]byte, error) {
		return out, nil
	}
}

func mustParseConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(args)
	if err != nil {
		t.Fatalf("config.Parse(%v) error = %v", args, err)
	}
	return cfg
}

func mustOpen(t *testing.T, loader dynlib.Loader, symbols []string, cfg *config.Config) *Runner {
	t.Helper()
	r, err := Open(context.Background(), loader, fixedLister(nmLines(symbols...)), cfg, "lib.so")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return r
}

// scenario 1: happy path.
func TestScenarioHappyPath(t *testing.T) {
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_strutil", dynlib.Simple(0))
	loader.Register("lib.so", "test_strutil_trim", dynlib.Simple(0))
	loader.Register("lib.so", "test_strutil_split", dynlib.Simple(0))

	cfg := mustParseConfig(t)
	r := mustOpen(t, loader, []string{"test_strutil", "test_strutil_trim", "test_strutil_split"}, cfg)

	lr := r.Run(context.Background())
	if len(lr.ModuleResults) != 1 {
		t.Fatalf("ModuleResults = %d entries, want 1", len(lr.ModuleResults))
	}
	mr := lr.ModuleResults[0]
	if mr.MainOutcome == nil || mr.MainOutcome.Classified != Pass {
		t.Fatalf("module main outcome = %+v, want Pass", mr.MainOutcome)
	}
	if len(mr.CaseResults) != 2 {
		t.Fatalf("CaseResults = %d, want 2", len(mr.CaseResults))
	}
	for _, o := range mr.CaseResults {
		if o.Classified != Pass {
			t.Errorf("case %s classified %s, want Pass", o.Symbol, o.Classified)
		}
	}
}

// scenario 2: assertion terminates the worker and is reported as a
// case-axis failure, overriding whatever raw code the test "returned".
func TestScenarioAssertion(t *testing.T) {
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_strutil", dynlib.Simple(0))
	loader.Register("lib.so", "test_strutil_trim", dynlib.Terminal(func(i *broker.Interface) {
		i.AssertError("x!=y", "strutil_test.c", 42)
	}))
	loader.Register("lib.so", "test_strutil_split", dynlib.Simple(0))

	cfg := mustParseConfig(t)
	r := mustOpen(t, loader, []string{"test_strutil", "test_strutil_trim", "test_strutil_split"}, cfg)

	lr := r.Run(context.Background())
	mr := lr.ModuleResults[0]

	var trim *Outcome
	for i := range mr.CaseResults {
		if mr.CaseResults[i].Symbol == "test_strutil_trim" {
			trim = &mr.CaseResults[i]
		}
	}
	if trim == nil {
		t.Fatalf("test_strutil_trim did not produce an outcome")
	}
	if trim.Classified != Fail {
		t.Fatalf("Classified = %s, want Fail", trim.Classified)
	}
	if trim.FuncError == nil {
		t.Fatalf("FuncError is nil, want a recorded assertion failure")
	}
	want := broker.FuncError{Class: broker.ErrorClassError, File: "strutil_test.c", Line: 42, Message: "x!=y"}
	if *trim.FuncError != want {
		t.Errorf("FuncError = %+v, want %+v", *trim.FuncError, want)
	}
	if trim.RawReturn != 0 {
		t.Errorf("RawReturn = %d, want 0", trim.RawReturn)
	}
}

// scenario 3: a case_depends declaration pulls in its dependency ahead
// of the selection filter, in dependency-then-dependent order.
func TestScenarioDependencies(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) func(*broker.Interface) {
		return func(*broker.Interface) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_mod", dynlib.Simple(0, func(i *broker.Interface) {
		i.CaseDepends("b", "a")
	}))
	loader.Register("lib.so", "test_mod_a", dynlib.Simple(0, record("a")))
	loader.Register("lib.so", "test_mod_b", dynlib.Simple(0, record("b")))

	cfg := mustParseConfig(t, "-t", "b")
	r := mustOpen(t, loader, []string{"test_mod", "test_mod_a", "test_mod_b"}, cfg)

	lr := r.Run(context.Background())
	mr := lr.ModuleResults[0]

	if len(mr.CaseResults) != 2 {
		t.Fatalf("CaseResults = %d, want 2 (a pulled in via dependency)", len(mr.CaseResults))
	}
	if diff := fmt.Sprint(order); diff != fmt.Sprint([]string{"a", "b"}) {
		t.Fatalf("execution order = %v, want [a b]", order)
	}
}

// scenario 4: FailModule with skip_on_module_fail stops remaining
// cases in the module but still runs module exit.
func TestScenarioModuleFailSkip(t *testing.T) {
	var yRan bool
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_m_x", dynlib.Simple(32))
	loader.Register("lib.so", "test_m_y", dynlib.Simple(0, func(*broker.Interface) { yRan = true }))
	loader.Register("lib.so", "test_m_exit", dynlib.Simple(0))

	cfg := mustParseConfig(t) // skip_on_module_fail defaults true
	r := mustOpen(t, loader, []string{"test_m_x", "test_m_y", "test_m_exit"}, cfg)

	lr := r.Run(context.Background())
	mr := lr.ModuleResults[0]

	if len(mr.CaseResults) != 1 || mr.CaseResults[0].Classified != FailModule {
		t.Fatalf("CaseResults = %+v, want exactly x=FailModule", mr.CaseResults)
	}
	if yRan {
		t.Fatalf("case y ran, want it skipped after FailModule")
	}
	if mr.ExitOutcome == nil || mr.ExitOutcome.Classified != Pass {
		t.Fatalf("ExitOutcome = %+v, want module exit to still run and pass", mr.ExitOutcome)
	}
}

// scenario 5: FailAll with stop_on_all_fail aborts the remaining
// modules in the runner, but global exit still runs.
func TestScenarioAllFailShortCircuit(t *testing.T) {
	var nRan bool
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_m_x", dynlib.Simple(48))
	loader.Register("lib.so", "test_n_z", dynlib.Simple(0, func(*broker.Interface) { nRan = true }))
	loader.Register("lib.so", "test_exit", dynlib.Simple(0))

	cfg := mustParseConfig(t) // stop_on_all_fail defaults true
	r := mustOpen(t, loader, []string{"test_m_x", "test_n_z", "test_exit"}, cfg)

	lr := r.Run(context.Background())
	if !lr.StopAll {
		t.Fatalf("StopAll = false, want true")
	}
	if len(lr.ModuleResults) != 1 || lr.ModuleResults[0].Name != "m" {
		t.Fatalf("ModuleResults = %+v, want only module m", lr.ModuleResults)
	}
	if nRan {
		t.Fatalf("module n's case ran, want it skipped entirely")
	}
	if lr.GlobalExit == nil || lr.GlobalExit.Classified != Pass {
		t.Fatalf("GlobalExit = %+v, want it to still run", lr.GlobalExit)
	}
}

// scenario 6: an out-of-range raw return code classifies as Invalid
// and counts as a failure distinct from Fail.
func TestScenarioInvalidReturn(t *testing.T) {
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_m_x", dynlib.Simple(7))

	cfg := mustParseConfig(t)
	r := mustOpen(t, loader, []string{"test_m_x"}, cfg)

	lr := r.Run(context.Background())
	o := lr.ModuleResults[0].CaseResults[0]
	if o.Classified != Invalid {
		t.Fatalf("Classified = %s, want Invalid", o.Classified)
	}
	if !o.Failed() {
		t.Fatalf("Failed() = false, want true for an Invalid outcome")
	}
}

// scenario 7: an unknown case_depends target is dropped, not fatal;
// the dependent case still runs normally.
func TestScenarioUnknownDependencyDropped(t *testing.T) {
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_mod", dynlib.Simple(0, func(i *broker.Interface) {
		i.CaseDepends("b", "ghost")
	}))
	loader.Register("lib.so", "test_mod_b", dynlib.Simple(0))

	cfg := mustParseConfig(t)
	r := mustOpen(t, loader, []string{"test_mod", "test_mod_b"}, cfg)

	lr := r.Run(context.Background())
	mr := lr.ModuleResults[0]
	if len(mr.CaseResults) != 1 || mr.CaseResults[0].Classified != Pass {
		t.Fatalf("CaseResults = %+v, want b to run and pass despite the unknown dependency", mr.CaseResults)
	}
}

// scenario 8: the classifier's tail dispatch is gated by the
// configured exit name, not the literal string "exit".
func TestScenarioClassifierRespectsConfiguredExitName(t *testing.T) {
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_mod", dynlib.Simple(0))
	loader.Register("lib.so", "test_mod_exit", dynlib.Simple(0))

	cfg := mustParseConfig(t, "--exit-func-name=teardown")
	r := mustOpen(t, loader, []string{"test_mod", "test_mod_exit"}, cfg)

	var found bool
	for _, e := range r.Listing() {
		if e.Module == "mod" && e.Case == "exit" {
			found = true
			if e.Role != "" {
				t.Fatalf("entry %+v has Role %q, want a regular case (empty Role)", e, e.Role)
			}
		}
	}
	if !found {
		t.Fatalf("expected a regular case named %q in module mod", "exit")
	}
}

// scenario 9: listing mode never resolves a symbol.
func TestScenarioListingNeverResolves(t *testing.T) {
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_mod", dynlib.Simple(0))
	loader.Register("lib.so", "test_mod_a", dynlib.Simple(0))

	resolves := 0
	counting := &countingLoader{inner: loader, resolves: &resolves}

	cfg := mustParseConfig(t, "-l")
	r := mustOpen(t, counting, []string{"test_mod", "test_mod_a"}, cfg)

	entries := r.Listing()
	if len(entries) == 0 {
		t.Fatalf("Listing() returned no entries")
	}
	if resolves != 0 {
		t.Fatalf("Resolve was called %d times, want 0 for listing mode", resolves)
	}
}

// cycle tolerance: a <-> b dependency cycle completes both exactly
// once with no infinite recursion.
func TestDependencyCycleCompletesOnce(t *testing.T) {
	var aRuns, bRuns int
	loader := dynlib.NewFakeLoader()
	loader.Register("lib.so", "test_mod", dynlib.Simple(0, func(i *broker.Interface) {
		i.CaseDepends("a", "b")
		i.CaseDepends("b", "a")
	}))
	loader.Register("lib.so", "test_mod_a", dynlib.Simple(0, func(*broker.Interface) { aRuns++ }))
	loader.Register("lib.so", "test_mod_b", dynlib.Simple(0, func(*broker.Interface) { bRuns++ }))

	cfg := mustParseConfig(t)
	r := mustOpen(t, loader, []string{"test_mod", "test_mod_a", "test_mod_b"}, cfg)

	r.Run(context.Background())
	if aRuns != 1 || bRuns != 1 {
		t.Fatalf("aRuns=%d bRuns=%d, want both exactly 1", aRuns, bRuns)
	}
}

// countingLoader wraps a Loader and counts Resolve calls across every
// Handle it opens, to verify listing mode never triggers one.
type countingLoader struct {
	inner    dynlib.Loader
	resolves *int
}

func (c *countingLoader) Open(path string) (dynlib.Handle, error) {
	h, err := c.inner.Open(path)
	if err != nil {
		return nil, err
	}
	return &countingHandle{inner: h, resolves: c.resolves}, nil
}

type countingHandle struct {
	inner    dynlib.Handle
	resolves *int
}

func (h *countingHandle) Path() string { return h.inner.Path() }

func (h *countingHandle) Resolve(symbol string) (dynlib.TestableFunc, error) {
	*h.resolves++
	return h.inner.Resolve(symbol)
}
