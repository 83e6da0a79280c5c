// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package broker implements the test-runner callback interface: the
// logging sinks, assert_error, pre/post-case hook registration, and
// dependency declaration that C/C++ test code uses to talk back to the
// runner, plus the single shared Context those calls write into.
//
// The real (cgo) loader hands a test function a C-ABI struct whose
// slots are fixed package-level trampolines (see
// internal/dynlib/loader_cgo.go); those trampolines call the plain Go
// functions in this package. The fake loader, used throughout this
// repository's tests, instead calls the *Interface methods below
// directly as ordinary Go function values. Both paths converge on the
// same Context, which is exactly the "single global context guarded by
// a lock" spec.md §4.4 calls for.
package broker

import "log"

// LogLevel identifies which of the six logging sinks was invoked.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
	LevelAbort
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelAbort:
		return "ABORT"
	default:
		return "LOG"
	}
}

// Interface is the Go-level view of the C-ABI TestRunnerInterface
// record described in spec.md §6: six logging sinks, assert_error,
// pre/post-case hook registration, and case_depends. Field order here
// does not need to match the C struct's fixed layout (that discipline
// lives in internal/dynlib's cgo file, which is what actually crosses
// the C boundary) — this type exists so Go test doubles can exercise
// broker semantics without cgo.
type Interface struct{}

// New returns a broker Interface bound to the package-level Context.
// Per spec.md's own simplification (cases are strictly serial), every
// Interface value observes the same global state; New exists for
// symmetry with the "builds a broker instance" step in spec.md §4.6
// rather than to carry any distinct state of its own.
func New() *Interface {
	return &Interface{}
}

// Debug, Info, Warning are pure logging sinks: no failure is recorded,
// no termination occurs.
func (i *Interface) Debug(line int, file, message string)   { logLine(LevelDebug, line, file, message) }
func (i *Interface) Info(line int, file, message string)    { logLine(LevelInfo, line, file, message) }
func (i *Interface) Warning(line int, file, message string)  { logLine(LevelWarning, line, file, message) }

// Error, Fatal, Abort additionally record a typed failure and signal
// the current case's exit channel, per spec.md §4.4's cancellation
// semantics: the caller must not be allowed to continue past these.
func (i *Interface) Error(line int, file, message string) {
	i.recordFailure(ErrorClassError, line, file, message)
}
func (i *Interface) Fatal(line int, file, message string) {
	i.recordFailure(ErrorClassFatal, line, file, message)
}
func (i *Interface) Abort(line int, file, message string) {
	i.recordFailure(ErrorClassAbort, line, file, message)
}

func (i *Interface) recordFailure(class ErrorClass, line int, file, message string) {
	logLine(levelForClass(class), line, file, message)
	setFuncError(FuncError{Class: class, File: file, Line: line, Message: message})
	signalExit()
}

func levelForClass(c ErrorClass) LogLevel {
	switch c {
	case ErrorClassFatal:
		return LevelFatal
	case ErrorClassAbort:
		return LevelAbort
	default:
		return LevelError
	}
}

// AssertError records an assertion failure (class Error) and
// terminates the case, same as Error/Fatal/Abort (spec.md §4.4).
func (i *Interface) AssertError(exp, file string, line int) {
	logLine(LevelError, line, file, exp)
	setFuncError(FuncError{Class: ErrorClassError, File: file, Line: line, Message: exp})
	signalExit()
}

// SetPreCaseCallback and SetPostCaseCallback register hooks the runner
// invokes around every subsequent case in the calling module. Legal
// only while a module's main function is executing; outside that
// window the call is logged and dropped (spec.md §4.4).
func (i *Interface) SetPreCaseCallback(hook CaseHook) {
	if !setPreCaseHook(hook) {
		log.Printf("shtest: set_pre_case_callback called outside module main; ignored")
	}
}

func (i *Interface) SetPostCaseCallback(hook CaseHook) {
	if !setPostCaseHook(hook) {
		log.Printf("shtest: set_post_case_callback called outside module main; ignored")
	}
}

// CaseDepends declares that caseName depends on every name in the
// comma-separated depList. Legal only during module main (spec.md
// §4.4); recorded dependencies are resolved against the module's case
// set by the caller of Take.
func (i *Interface) CaseDepends(caseName, depList string) {
	if !addDependency(caseName, depList) {
		log.Printf("shtest: case_depends(%s, %s) called outside module main; ignored", caseName, depList)
	}
}

// SetRawResult records a test function's plain integer return value.
// Called by the worker immediately after a normal (non-terminal)
// return from the resolved C function.
func SetRawResult(v int32) { setRawResult(v) }

func logLine(level LogLevel, line int, file, message string) {
	log.Printf("%s: %s:%d: %s", level, file, line, message)
}
