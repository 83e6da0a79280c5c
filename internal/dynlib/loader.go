// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynlib

import "errors"

// errCgoUnavailable explains why NewLoader()'s Open fails when this
// module was built without cgo (e.g. CGO_ENABLED=0): there is no
// pure-Go dlopen/dlsym in this codebase, by design (see DESIGN.md).
var errCgoUnavailable = errors.New("built without cgo; real shared-library loading is unavailable")

// newRealLoader is set by loader_cgo.go's init when built with cgo
// available; loader_stub.go provides the non-cgo fallback. Splitting
// the cgo-specific implementation this way means the pure-Go packages
// of this repository (catalog, classify, config, scan, report, and
// internal/runner's fake-loader-backed tests) keep building and
// testing without a C toolchain, per SPEC_FULL.md §9.
var newRealLoader func(path string) (Handle, error)

// realLoader opens shared objects via the platform's dynamic loader.
type realLoader struct{}

// NewLoader returns the Loader backed by dlopen/dlsym. On a build
// without cgo, Open always fails with ErrLoad rather than refusing to
// compile the whole module.
func NewLoader() Loader {
	return realLoader{}
}

func (realLoader) Open(path string) (Handle, error) {
	if newRealLoader == nil {
		return nil, loadErrorf(path, errCgoUnavailable)
	}
	return newRealLoader(path)
}
