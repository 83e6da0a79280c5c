// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"log"
	"strings"

	"github.com/gnilk/shtest/internal/broker"
	"github.com/gnilk/shtest/internal/config"
	"github.com/gnilk/shtest/internal/dynlib"
)

// module owns one classified module's lifecycle functions and ordered
// case set (spec.md §3's Module, orchestrated per §4.7). Its execute
// method is the direct analogue of buildgo's staged-steps-with-early-
// return shape: main, then cases, then exit; a failing main or case can
// cut the remaining cases short, but exit always runs.
type module struct {
	name string
	main *testFunc
	exit *testFunc

	cases     []*testFunc
	byCase    map[string]*testFunc
	preHook   broker.CaseHook
	postHook  broker.CaseHook
}

func newModule(name string) *module {
	return &module{name: name, byCase: make(map[string]*testFunc)}
}

// addCase appends a regular case in catalog (insertion) order (spec.md
// §4.7 step 2's ordering guarantee).
func (m *module) addCase(f *testFunc) {
	m.cases = append(m.cases, f)
	m.byCase[f.Case] = f
}

// ModuleResult is the per-module outcome summary produced by execute,
// consumed by internal/report (spec.md §4.9).
type ModuleResult struct {
	Name        string
	MainOutcome *Outcome
	CaseResults []Outcome
	ExitOutcome *Outcome
	StopAll     bool
}

// execute runs this module's main, its case set, and its exit function
// per spec.md §4.7's three-step procedure, honoring
// skip_on_module_fail and stop_on_all_fail.
func (m *module) execute(handle dynlib.Handle, cfg *config.Config) ModuleResult {
	result := ModuleResult{Name: m.name}

	if m.main != nil {
		snap := m.main.executeSnapshot(execParams{handle: handle, cfg: cfg, isModuleMain: true})
		outcome := m.main.outcome
		result.MainOutcome = &outcome
		m.adoptMainContext(snap, cfg)

		if outcome.Classified == FailAll && cfg.StopOnAllFail {
			result.StopAll = true
			m.executeExit(handle, cfg, &result)
			return result
		}
		if outcome.Classified == FailModule && cfg.SkipOnModuleFail {
			m.executeExit(handle, cfg, &result)
			return result
		}
	}

	// collect appends f's outcome after those of the dependencies it
	// pulled in, in the order executeDependencies ran them.
	seen := make(map[*testFunc]bool)
	var collect func(f *testFunc)
	collect = func(f *testFunc) {
		if seen[f] || f.state != stateFinished {
			return
		}
		seen[f] = true
		for _, d := range f.dependencies {
			collect(d)
		}
		result.CaseResults = append(result.CaseResults, f.outcome)
	}

	for _, c := range m.cases {
		if !c.shouldExecute(cfg) {
			continue
		}
		c.execute(execParams{
			handle:       handle,
			cfg:          cfg,
			preCaseHook:  m.preHook,
			postCaseHook: m.postHook,
		})
		collect(c)

		if c.outcome.Classified == FailAll && cfg.StopOnAllFail {
			result.StopAll = true
			break
		}
		if c.outcome.Classified == FailModule && cfg.SkipOnModuleFail {
			break
		}
	}

	m.executeExit(handle, cfg, &result)
	return result
}

func (m *module) executeExit(handle dynlib.Handle, cfg *config.Config, result *ModuleResult) {
	if m.exit == nil {
		return
	}
	m.exit.execute(execParams{handle: handle, cfg: cfg})
	outcome := m.exit.outcome
	result.ExitOutcome = &outcome
}

// adoptMainContext copies module main's Context snapshot into this
// module per spec.md §4.7 step 1: the pre/post-case hooks it installed,
// and its declared case dependencies resolved by name against this
// module's case set. An unknown dependency name is dropped, logged at
// verbose>=1, never fatal.
func (m *module) adoptMainContext(snap broker.Snapshot, cfg *config.Config) {
	m.preHook = snap.PreCaseHook
	m.postHook = snap.PostCaseHook

	for _, dep := range snap.Dependencies {
		caseFn, ok := m.byCase[dep.Case]
		if !ok {
			if cfg.Verbosity >= 1 {
				log.Printf("module %s: case_depends names unknown case %q, ignoring", m.name, dep.Case)
			}
			continue
		}
		for _, depName := range dep.Dependencies {
			depName = strings.TrimSpace(depName)
			if depName == "" {
				continue
			}
			depFn, ok := m.byCase[depName]
			if !ok {
				if cfg.Verbosity >= 1 {
					log.Printf("module %s: case %q depends on unknown case %q, ignoring", m.name, dep.Case, depName)
				}
				continue
			}
			caseFn.addDependency(depFn)
		}
	}
}
