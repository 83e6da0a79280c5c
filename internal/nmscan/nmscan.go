// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nmscan invokes the platform symbol lister (nm) against a
// shared library and returns its raw output for catalog.Parse.
package nmscan

import (
	"bytes"
	"context"
	"log"
	"os/exec"
)

// Lister runs a symbol-listing command against path and returns its
// stdout. Swapped out in tests; the default is Command, which shells
// out to "nm".
type Lister func(ctx context.Context, path string) ([]byte, error)

// Command runs "nm <path>" and returns stdout. A non-zero exit is not
// treated as an error: per the lister contract, discovery must never
// fail an entire run because one library could not be scanned. The
// caller gets an empty result and a logged warning instead.
func Command(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "nm", path)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		log.Printf("shtest: nm %s: %v", path, err)
		return nil, nil
	}
	return stdout.Bytes(), nil
}
