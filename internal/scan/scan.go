// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan turns the CLI's positional input arguments into a flat
// list of candidate shared-library paths, matching the original
// implementation's DirScanner behavior: directories recurse, a bare
// file is used as-is, and "." expands to the current working
// directory.
package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// extension is the only file suffix scan treats as a candidate
// library. ("Might need to extend this one," per the original's own
// comment on the equivalent check — it never was.)
const extension = ".so"

// Libraries resolves each of roots into a flat, deduplicated-by-walk
// list of .so paths. A root that's a directory is walked recursively;
// any other root is used as-is regardless of extension, matching
// scan_library's unconditional acceptance of an explicit path. A root
// that cannot be stat'ed (or a walk error) ends the whole scan with
// that error.
func Libraries(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		resolved := root
		if root == "." {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			resolved = cwd
		}

		info, err := os.Stat(resolved)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			found, err := walkDir(resolved)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, resolved)
	}
	return paths, nil
}

func walkDir(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, extension) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
