// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scan

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestLibrariesRecursesDirectories(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.so"))
	mustWrite(t, filepath.Join(root, "readme.txt"))
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(sub, "b.so"))

	got, err := Libraries([]string{root})
	if err != nil {
		t.Fatalf("Libraries() error = %v", err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(root, "a.so"), filepath.Join(sub, "b.so")}
	sort.Strings(want)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Libraries() = %v, want %v", got, want)
	}
}

func TestLibrariesUsesBareFileAsIs(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "whatever.bin")
	mustWrite(t, path)

	got, err := Libraries([]string{path})
	if err != nil {
		t.Fatalf("Libraries() error = %v", err)
	}
	if len(got) != 1 || got[0] != path {
		t.Fatalf("Libraries() = %v, want [%s] (bare file used as-is regardless of extension)", got, path)
	}
}

func TestLibrariesDotExpandsToWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.so"))

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(root); err != nil {
		t.Fatal(err)
	}

	got, err := Libraries([]string{"."})
	if err != nil {
		t.Fatalf("Libraries() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Libraries() = %v, want one entry", got)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
