// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   Classification
	}{
		{
			symbol: "test_main",
			want:   Classification{Symbol: "test_main", Scope: ScopeGlobal, Type: TypeMain, Module: NoModule, Case: "main"},
		},
		{
			symbol: "test_exit",
			want:   Classification{Symbol: "test_exit", Scope: ScopeGlobal, Type: TypeExit, Module: NoModule, Case: "exit"},
		},
		{
			symbol: "test_strutil",
			want:   Classification{Symbol: "test_strutil", Scope: ScopeModule, Type: TypeMain, Module: "strutil", Case: "strutil"},
		},
		{
			symbol: "test_strutil_exit",
			want:   Classification{Symbol: "test_strutil_exit", Scope: ScopeModule, Type: TypeExit, Module: "strutil", Case: "exit"},
		},
		{
			symbol: "test_strutil_trim",
			want:   Classification{Symbol: "test_strutil_trim", Scope: ScopeModule, Type: TypeRegular, Module: "strutil", Case: "trim"},
		},
		{
			symbol: "test_strutil_trim_left",
			want:   Classification{Symbol: "test_strutil_trim_left", Scope: ScopeModule, Type: TypeRegular, Module: "strutil", Case: "trim_left"},
		},
	}
	for _, tt := range tests {
		got, err := Symbol(tt.symbol, "main", "exit")
		if err != nil {
			t.Errorf("Symbol(%q): %v", tt.symbol, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Symbol(%q) mismatch (-want +got):\n%s", tt.symbol, diff)
		}
	}
}

func TestSymbolConfiguredNames(t *testing.T) {
	// A module whose case name is literally "exit" but the configured
	// exit name is "teardown" must NOT collapse to TypeExit.
	got, err := Symbol("test_mod_exit", "main", "teardown")
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	want := Classification{Symbol: "test_mod_exit", Scope: ScopeModule, Type: TypeRegular, Module: "mod", Case: "exit"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSymbolReject(t *testing.T) {
	_, err := Symbol("test", "main", "exit")
	if !errors.Is(err, ErrReject) {
		t.Errorf("Symbol(%q) error = %v, want ErrReject", "test", err)
	}
}
