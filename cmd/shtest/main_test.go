// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnilk/shtest/internal/runner"
)

func TestFormatListEntry(t *testing.T) {
	cases := []struct {
		name string
		e    runner.ListEntry
		want string
	}{
		{"running case", runner.ListEntry{Module: "strutil", Case: "trim", WillRun: true}, "*  strutil::trim"},
		{"skipped case", runner.ListEntry{Module: "strutil", Case: "trim", WillRun: false}, "-  strutil::trim"},
		{"running main", runner.ListEntry{Module: "strutil", Case: "strutil", Role: "m", WillRun: true}, "*m strutil::strutil"},
		{"running exit", runner.ListEntry{Module: "strutil", Case: "exit", Role: "e", WillRun: true}, "*e strutil::exit"},
	}
	for _, c := range cases {
		if got := formatListEntry(c.e); got != c.want {
			t.Errorf("%s: formatListEntry() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestOpenReportOutputDefaultsToStdout(t *testing.T) {
	for _, path := range []string{"", "-"} {
		w, closeFn, err := openReportOutput(path)
		if err != nil {
			t.Fatalf("openReportOutput(%q) error = %v", path, err)
		}
		defer closeFn()
		if w != os.Stdout {
			t.Errorf("openReportOutput(%q) = %v, want os.Stdout", path, w)
		}
	}
}

func TestOpenReportOutputCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	w, closeFn, err := openReportOutput(path)
	if err != nil {
		t.Fatalf("openReportOutput(%q) error = %v", path, err)
	}
	defer closeFn()
	if w.Name() != path {
		t.Errorf("openReportOutput(%q) created %q", path, w.Name())
	}
}
