// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !cgo

// This file intentionally left without a cgo loader: newRealLoader
// stays nil, so NewLoader().Open always returns errCgoUnavailable
// (defined in loader.go), rather than failing the build of the
// pure-Go packages that don't need real shared-library loading.
package dynlib
