// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dynlib defines the narrow loader interface the core depends
// on: open a shared object by path, resolve a symbol by name into a
// callable. The real implementation (loader_cgo.go) wraps dlopen/
// dlsym; tests use the in-memory fake (loader_fake.go) instead, the
// same separation golang-build draws between buildlet.Client and its
// GCE/EC2/Kubernetes/fake implementations.
package dynlib

import (
	"errors"
	"fmt"

	"github.com/gnilk/shtest/internal/broker"
)

// ErrLoad is returned (wrapped with the offending path) when a shared
// object cannot be opened.
var ErrLoad = errors.New("dynlib: failed to load library")

// ErrSymbol is returned (wrapped with the offending symbol) when a
// name cannot be resolved in an open library.
var ErrSymbol = errors.New("dynlib: failed to resolve symbol")

// TestableFunc is the Go-side callable shape of a resolved test
// function: it accepts the callback interface and returns the raw
// integer result code, matching the C ABI
// "int32 (*)(TestRunnerInterface*)" described in spec.md §6.
type TestableFunc func(*broker.Interface) int32

// Handle owns one opened shared object and resolves symbols within it.
// Shared by every case executed against the library; never closed
// mid-run (the interface has no Close).
type Handle interface {
	// Resolve looks up symbol and returns a callable wrapping the
	// underlying C function pointer. Safe to call concurrently,
	// though in practice only ever one case at a time does so.
	Resolve(symbol string) (TestableFunc, error)

	// Path is the filesystem path the handle was opened from.
	Path() string
}

// Loader opens shared objects into Handles.
type Loader interface {
	Open(path string) (Handle, error)
}

func loadErrorf(path string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrLoad, path, cause)
}

func symbolErrorf(symbol string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrSymbol, symbol, cause)
}
