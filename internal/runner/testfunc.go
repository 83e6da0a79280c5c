// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"log"
	"runtime"
	"time"

	"github.com/gnilk/shtest/internal/broker"
	"github.com/gnilk/shtest/internal/classify"
	"github.com/gnilk/shtest/internal/config"
	"github.com/gnilk/shtest/internal/dynlib"
)

// state is a TestFunction's lifecycle position. It only ever moves
// forward: Idle -> Executing -> Finished (spec.md §3).
type state int

const (
	stateIdle state = iota
	stateExecuting
	stateFinished
)

// testFunc is one exported test_* symbol, classified and (once
// executed) carrying its Outcome. Self-edges in the dependency graph
// are ignored at append time; cycles are broken by the Executing
// guard in execute, not by detection (spec.md §3, §9).
type testFunc struct {
	classify.Classification

	state        state
	dependencies []*testFunc
	outcome      Outcome
}

func newTestFunc(c classify.Classification) *testFunc {
	return &testFunc{Classification: c, state: stateIdle}
}

// addDependency appends dep to f's dependency list, ignoring a
// self-edge (spec.md §3).
func (f *testFunc) addDependency(dep *testFunc) {
	if dep == f {
		return
	}
	f.dependencies = append(f.dependencies, dep)
}

// shouldExecute reports whether this case passes the configured
// testcase selection filter and isn't already running/finished
// (spec.md §4.6 precondition). The module filter is applied by
// Runner.Run before the module executes at all.
func (f *testFunc) shouldExecute(cfg *config.Config) bool {
	if f.state != stateIdle {
		return false
	}
	return cfg.MatchesCase(f.Case)
}

// execParams bundles what execute needs from its caller without
// forcing every TestFunction to hold a back-reference to its owning
// module and runner.
type execParams struct {
	handle       dynlib.Handle
	cfg          *config.Config
	preCaseHook  broker.CaseHook
	postCaseHook broker.CaseHook

	// isModuleMain marks that this invocation is a module's main
	// function (not the library's global main): while it runs,
	// set_pre_case_callback/set_post_case_callback/case_depends take
	// effect (spec.md §4.4); for every other invocation they're
	// recorded and dropped.
	isModuleMain bool
}

// execute runs f per spec.md §4.6's nine-step procedure, discarding the
// raw Context snapshot once the Outcome is assembled. It recurses into
// Idle dependencies on the calling goroutine (they are control flow,
// not isolated cases) before spawning this case's own worker.
func (f *testFunc) execute(p execParams) {
	f.executeSnapshot(p)
}

// executeSnapshot is execute's full implementation, returning the raw
// Context snapshot in addition to recording the Outcome. Module main
// invocations need the snapshot themselves (pre/post hooks, declared
// dependencies, per spec §4.7 step 1); module exit and ordinary cases
// call execute and let the snapshot go.
func (f *testFunc) executeSnapshot(p execParams) broker.Snapshot {
	if f.state != stateIdle {
		return broker.Snapshot{}
	}
	f.state = stateExecuting

	f.executeDependencies(p)

	if !p.cfg.SuppressProgress {
		log.Printf("=== RUN\t%s", f.Symbol)
	}

	start := time.Now()
	broker.Reset()
	if p.isModuleMain {
		broker.SetInModuleMain(true)
	}

	if p.preCaseHook != nil {
		p.preCaseHook(broker.New())
	}

	fn, resolveErr := p.handle.Resolve(f.Symbol)
	var snap broker.Snapshot
	if resolveErr != nil {
		// SymbolError: spec.md §7 says mark the case Invalid and
		// continue; it never aborts the process.
		snap = broker.Snapshot{}
	} else {
		snap = f.runWorker(fn)
	}
	if p.isModuleMain {
		broker.SetInModuleMain(false)
	}

	if p.postCaseHook != nil {
		p.postCaseHook(broker.New())
	}

	duration := time.Since(start)
	f.outcome = newOutcome(f.Symbol, snap, duration)
	f.outcome.SymbolError = resolveErr
	if resolveErr != nil {
		f.outcome.Classified = Invalid
	}

	f.state = stateFinished
	return snap
}

// runWorker spawns the dedicated goroutine ("worker thread") for one
// invocation of the resolved test function and waits for it to join.
//
// The goroutine locks itself to its OS thread and never unlocks: if
// the test body calls error/fatal/abort/assert_error, the cgo
// trampoline behind that call invokes a real pthread_exit on this
// thread, which never returns to Go — there is deliberately no
// "normal" code path after that point on this goroutine. Go cannot
// observe that kind of exit by waiting on the goroutine itself (it
// never finishes in any way Go's runtime reports), so instead the
// broker's terminal handlers close the done channel themselves, on
// the C side of the call, immediately before handing off to
// pthread_exit. That signal — not the goroutine's completion — is
// what runWorker actually waits on; see internal/broker's exit-signal
// plumbing. A normal (non-terminal) return from the test function
// closes the same channel via the ordinary defer below.
func (f *testFunc) runWorker(fn dynlib.TestableFunc) broker.Snapshot {
	done := make(chan struct{})
	broker.SetExitSignal(done)

	go func() {
		runtime.LockOSThread()
		defer func() {
			// Only reached on a normal return; the thread-exit path
			// (pthread_exit, via a terminal broker call) never runs
			// this defer at all.
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		raw := fn(broker.New())
		broker.SetRawResult(raw)
	}()

	<-done
	return broker.Take()
}

// executeDependencies recursively executes every Idle dependency on
// the calling goroutine before this case's own worker is spawned.
// Dependencies that are Executing (a cycle) or Finished (memoized) are
// skipped without error (spec.md §4.6 step 2, §8 cycle tolerance).
func (f *testFunc) executeDependencies(p execParams) {
	for _, dep := range f.dependencies {
		if dep.state != stateIdle {
			continue
		}
		dep.execute(p)
	}
}
