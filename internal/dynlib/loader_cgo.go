// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build cgo

package dynlib

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <pthread.h>
#include <stdlib.h>
#include <stdint.h>

// TestRunnerInterface mirrors spec.md §6's record, field order fixed
// because the C test DSO expects a specific offset for each slot. Go
// cannot express C variadics, so the log sinks use the fixed-arity
// substitute spec.md §4.4 explicitly sanctions.
typedef void (*shtest_log_fn)(int line, const char *file, const char *fmt);
typedef void (*shtest_assert_fn)(const char *exp, const char *file, int line);
typedef void (*shtest_case_hook_fn)(void *iface);
typedef void (*shtest_depends_fn)(const char *name, const char *dep_list);

typedef struct {
	shtest_log_fn debug;
	shtest_log_fn info;
	shtest_log_fn warning;
	shtest_log_fn error;
	shtest_log_fn fatal;
	shtest_log_fn abort_;

	shtest_assert_fn assert_error;

	shtest_case_hook_fn set_pre_case_callback;
	shtest_case_hook_fn set_post_case_callback;

	shtest_depends_fn case_depends;
} shtest_interface;

typedef int32_t (*shtest_testable_fn)(shtest_interface *);
typedef void (*shtest_prepost_fn)(shtest_interface *);

// Forward declarations of the Go-exported trampolines; their
// definitions (via //export) live in this file below.
extern void shtestDebug(int line, char *file, char *fmt);
extern void shtestInfo(int line, char *file, char *fmt);
extern void shtestWarning(int line, char *file, char *fmt);
extern void shtestError(int line, char *file, char *fmt);
extern void shtestFatal(int line, char *file, char *fmt);
extern void shtestAbort(int line, char *file, char *fmt);
extern void shtestAssertError(char *exp, char *file, int line);
extern void shtestSetPreCaseCallback(void *iface);
extern void shtestSetPostCaseCallback(void *iface);
extern void shtestCaseDepends(char *name, char *depList);

static shtest_interface shtest_build_interface(void) {
	shtest_interface iface;
	iface.debug = shtestDebug;
	iface.info = shtestInfo;
	iface.warning = shtestWarning;
	iface.error = shtestError;
	iface.fatal = shtestFatal;
	iface.abort_ = shtestAbort;
	iface.assert_error = shtestAssertError;
	iface.set_pre_case_callback = shtestSetPreCaseCallback;
	iface.set_post_case_callback = shtestSetPostCaseCallback;
	iface.case_depends = shtestCaseDepends;
	return iface;
}

static int32_t shtest_call(void *fn, shtest_interface *iface) {
	shtest_testable_fn f = (shtest_testable_fn)fn;
	return f(iface);
}

static void shtest_call_prepost(void *fn, shtest_interface *iface) {
	shtest_prepost_fn f = (shtest_prepost_fn)fn;
	f(iface);
}

static void *shtest_dlopen(const char *path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static void *shtest_dlsym(void *handle, const char *name) {
	return dlsym(handle, name);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/gnilk/shtest/internal/broker"
)

func init() {
	// Registered as the default real loader constructor; cmd/shtest
	// calls this indirectly through NewLoader so non-cgo builds still
	// compile (see loader_stub.go).
	newRealLoader = newCgoLoader
}

type cgoHandle struct {
	path   string
	handle unsafe.Pointer
}

func newCgoLoader(path string) (Handle, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	h := C.shtest_dlopen(cPath)
	if h == nil {
		return nil, loadErrorf(path, fmt.Errorf("dlopen returned NULL"))
	}
	return &cgoHandle{path: path, handle: unsafe.Pointer(h)}, nil
}

func (h *cgoHandle) Path() string { return h.path }

func (h *cgoHandle) Resolve(symbol string) (TestableFunc, error) {
	cSym := C.CString(symbol)
	defer C.free(unsafe.Pointer(cSym))

	fn := C.shtest_dlsym(h.handle, cSym)
	if fn == nil {
		return nil, symbolErrorf(symbol, fmt.Errorf("dlsym returned NULL"))
	}

	return func(iface *broker.Interface) int32 {
		// The C ABI struct's slots are fixed, package-level
		// trampolines: C cannot call back into an arbitrary Go
		// closure, only into a real exported C symbol. Per-case state
		// is reached through the package-level broker.Context instead
		// (see internal/broker), which is why iface itself carries no
		// distinct state to marshal here.
		cIface := C.shtest_build_interface()
		return int32(C.shtest_call(fn, &cIface))
	}, nil
}

//export shtestDebug
func shtestDebug(line C.int, file, msg *C.char) {
	broker.New().Debug(int(line), C.GoString(file), C.GoString(msg))
}

//export shtestInfo
func shtestInfo(line C.int, file, msg *C.char) {
	broker.New().Info(int(line), C.GoString(file), C.GoString(msg))
}

//export shtestWarning
func shtestWarning(line C.int, file, msg *C.char) {
	broker.New().Warning(int(line), C.GoString(file), C.GoString(msg))
}

//export shtestError
func shtestError(line C.int, file, msg *C.char) {
	broker.New().Error(int(line), C.GoString(file), C.GoString(msg))
	C.pthread_exit(nil)
}

//export shtestFatal
func shtestFatal(line C.int, file, msg *C.char) {
	broker.New().Fatal(int(line), C.GoString(file), C.GoString(msg))
	C.pthread_exit(nil)
}

//export shtestAbort
func shtestAbort(line C.int, file, msg *C.char) {
	broker.New().Abort(int(line), C.GoString(file), C.GoString(msg))
	C.pthread_exit(nil)
}

//export shtestAssertError
func shtestAssertError(exp, file *C.char, line C.int) {
	broker.New().AssertError(C.GoString(exp), C.GoString(file), int(line))
	C.pthread_exit(nil)
}

//export shtestSetPreCaseCallback
func shtestSetPreCaseCallback(iface unsafe.Pointer) {
	broker.New().SetPreCaseCallback(wrapCaseHook(iface))
}

//export shtestSetPostCaseCallback
func shtestSetPostCaseCallback(iface unsafe.Pointer) {
	broker.New().SetPostCaseCallback(wrapCaseHook(iface))
}

//export shtestCaseDepends
func shtestCaseDepends(name, depList *C.char) {
	broker.New().CaseDepends(C.GoString(name), C.GoString(depList))
}

// wrapCaseHook turns the raw C function pointer a module's main
// function registered via set_pre_case_callback/set_post_case_callback
// into a broker.CaseHook the runner can invoke around every case in
// that module (spec.md §4.4, §4.7).
func wrapCaseHook(fn unsafe.Pointer) broker.CaseHook {
	return func(*broker.Interface) {
		cIface := C.shtest_build_interface()
		C.shtest_call_prepost(fn, &cIface)
	}
}
