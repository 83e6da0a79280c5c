// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynlib

import (
	"fmt"
	"sync"

	"github.com/gnilk/shtest/internal/broker"
)

// NewFakeLoader returns an in-memory Loader backed by plain Go
// functions, the direct analogue of golang-build's
// buildlet/fakebuildletclient.go: it lets internal/runner's tests
// exercise every ordering, dependency, and failure-propagation
// invariant without a real .so or a cgo build.
func NewFakeLoader() *FakeLoader {
	return &FakeLoader{libraries: make(map[string]map[string]TestableFunc)}
}

// FakeLoader is a Loader whose "libraries" are just maps of symbol
// name to Go function.
type FakeLoader struct {
	mu        sync.Mutex
	libraries map[string]map[string]TestableFunc
}

// Register installs fn as the implementation of symbol within the
// library at path, creating the library on first reference. Call this
// before Open.
func (f *FakeLoader) Register(path, symbol string, fn TestableFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lib, ok := f.libraries[path]
	if !ok {
		lib = make(map[string]TestableFunc)
		f.libraries[path] = lib
	}
	lib[symbol] = fn
}

// Open implements Loader.
func (f *FakeLoader) Open(path string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lib, ok := f.libraries[path]
	if !ok {
		return nil, loadErrorf(path, fmt.Errorf("no fake library registered"))
	}
	return &fakeHandle{path: path, symbols: lib}, nil
}

// Symbols reports the registered symbol names for path, in map
// iteration order (catalog.Parse, by contrast, keeps nm's line order).
func (f *FakeLoader) Symbols(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for name := range f.libraries[path] {
		names = append(names, name)
	}
	return names
}

type fakeHandle struct {
	path    string
	symbols map[string]TestableFunc
}

func (h *fakeHandle) Path() string { return h.path }

func (h *fakeHandle) Resolve(symbol string) (TestableFunc, error) {
	fn, ok := h.symbols[symbol]
	if !ok {
		return nil, symbolErrorf(symbol, fmt.Errorf("not found"))
	}
	return fn, nil
}

// Fixture helpers for tests that want to express a test body as a
// simple sequence of broker calls plus a return code, rather than a
// raw TestableFunc closure.

// Simple returns a TestableFunc that calls each of fns against the
// provided *broker.Interface in order, then returns code. A terminal
// broker call (AssertError etc.) made from fns does not stop the body
// here: it records the failure and control comes back to the next fn,
// unlike the cgo path's thread exit; tests that need to exercise
// termination use Terminal instead.
func Simple(code int32, fns ...func(*broker.Interface)) TestableFunc {
	return func(iface *broker.Interface) int32 {
		for _, fn := range fns {
			fn(iface)
		}
		return code
	}
}

// Terminal returns a TestableFunc that invokes fail (expected to call
// one of Interface's terminal methods: Error, Fatal, Abort, or
// AssertError) and then blocks forever, modeling the real cgo loader's
// pthread_exit semantics: control never returns to the test body, and
// the calling goroutine is abandoned exactly like the real worker's OS
// thread is. Returning normally here instead would race the runner's
// next Context.Reset against this goroutine's own (never-to-happen, in
// the real case) post-call bookkeeping.
func Terminal(fail func(*broker.Interface)) TestableFunc {
	return func(iface *broker.Interface) int32 {
		fail(iface)
		select {}
	}
}
