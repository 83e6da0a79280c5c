// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broker

import (
	"strings"
	"sync"
)

// ErrorClass categorizes a recorded test-function failure.
type ErrorClass int

const (
	ErrorClassError ErrorClass = iota
	ErrorClassAbort
	ErrorClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorClassAbort:
		return "Abort"
	case ErrorClassFatal:
		return "Fatal"
	default:
		return "Error"
	}
}

// FuncError is the structured failure a broker callback records before
// terminating the worker. It always wins over whatever integer the
// test body might otherwise have returned (spec.md §4.4, §8).
type FuncError struct {
	Class   ErrorClass
	File    string
	Line    int
	Message string
}

// CaseDependency is one case_depends() declaration: case depends on
// every name in Dependencies.
type CaseDependency struct {
	Case         string
	Dependencies []string
}

// CaseHook is a registered pre- or post-case callback. It is declared
// by a module's main function (via SetPreCaseCallback /
// SetPostCaseCallback) and invoked by the runner around every
// subsequent case in that module, per spec.md §4.4 and §4.7.
type CaseHook func(*Interface)

// Context is the single per-invocation record the broker writes and
// the orchestrator reads once after the worker has joined. Spec.md
// §4.5 and §9 are explicit that this is intentionally a single
// process-wide value, not one per goroutine: cases in a library are
// strictly serial, so a single mutex-guarded Context suffices and
// matches the original implementation's Lazy<Mutex<Context>>.
type Context struct {
	mu sync.Mutex

	rawResult    int32
	dependencies []CaseDependency
	funcError    *FuncError
	preCaseHook  CaseHook
	postCaseHook CaseHook

	// inModuleMain gates SetPreCaseCallback/SetPostCaseCallback/
	// CaseDepends: legal only while a module's main function is
	// executing (spec.md §4.4).
	inModuleMain bool

	// exitSignal, when set, is closed exactly once by a terminal
	// handler (error/fatal/abort/assert_error) immediately before it
	// would hand control to a native thread-exit. Go cannot observe a
	// worker that never returns through it any other way; see the doc
	// comment on runWorker in internal/runner for the full rationale.
	exitSignal chan struct{}
	exitOnce   *sync.Once
}

// global is the package-wide Context instance. It is deliberately the
// one process-wide mutable exposed through a typed accessor rather
// than a bare variable (spec.md §9): every write happens inside a
// narrow, documented window (reset immediately before a case runs,
// consumed immediately after the worker joins).
var global Context

// Reset clears the context immediately before a new case invocation,
// as required by spec.md §4.5/§4.6 step 3.
func Reset() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.rawResult = 0
	global.dependencies = nil
	global.funcError = nil
	global.preCaseHook = nil
	global.postCaseHook = nil
	global.inModuleMain = false
}

// SetInModuleMain toggles whether SetPreCaseCallback/
// SetPostCaseCallback/CaseDepends take effect. The runner calls this
// with true immediately before invoking a module's main function and
// false immediately after, so calls outside that window are recorded
// as dropped rather than applied (spec.md §4.4).
func SetInModuleMain(v bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.inModuleMain = v
}

// Snapshot is the read-once view of a finished Context, handed to the
// orchestrator after the worker has joined.
type Snapshot struct {
	RawResult    int32
	Dependencies []CaseDependency
	FuncError    *FuncError
	PreCaseHook  CaseHook
	PostCaseHook CaseHook
}

// Take atomically reads and clears the context. Called exactly once,
// by the orchestrator, after the worker goroutine has joined (spec.md
// §4.5).
func Take() Snapshot {
	global.mu.Lock()
	defer global.mu.Unlock()
	snap := Snapshot{
		RawResult:    global.rawResult,
		Dependencies: global.dependencies,
		FuncError:    global.funcError,
		PreCaseHook:  global.preCaseHook,
		PostCaseHook: global.postCaseHook,
	}
	global.rawResult = 0
	global.dependencies = nil
	global.funcError = nil
	global.preCaseHook = nil
	global.postCaseHook = nil
	return snap
}

func setRawResult(v int32) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.rawResult = v
}

func setFuncError(fe FuncError) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.funcError == nil {
		global.funcError = &fe
	}
}

func setPreCaseHook(h CaseHook) (applied bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if !global.inModuleMain {
		return false
	}
	global.preCaseHook = h
	return true
}

func setPostCaseHook(h CaseHook) (applied bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if !global.inModuleMain {
		return false
	}
	global.postCaseHook = h
	return true
}

// SetExitSignal installs the channel a terminal handler will close if
// the case aborts early. The runner installs a fresh channel
// immediately before starting each case's worker.
func SetExitSignal(ch chan struct{}) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.exitSignal = ch
	global.exitOnce = new(sync.Once)
}

// signalExit closes the current exit signal exactly once. Safe to call
// from multiple terminal handlers even though only one is expected to
// ever fire per case.
func signalExit() {
	global.mu.Lock()
	ch, once := global.exitSignal, global.exitOnce
	global.mu.Unlock()
	if ch == nil || once == nil {
		return
	}
	once.Do(func() { close(ch) })
}

func addDependency(caseName, depList string) (applied bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if !global.inModuleMain {
		return false
	}
	parts := strings.Split(depList, ",")
	dep := CaseDependency{Case: caseName}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			dep.Dependencies = append(dep.Dependencies, p)
		}
	}
	global.dependencies = append(global.dependencies, dep)
	return true
}
