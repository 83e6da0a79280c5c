// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package classify turns a test symbol name into the (scope, type,
// module, case) tuple that determines where the function is filed and
// how it is executed.
package classify

import (
	"errors"
	"strings"
)

// Scope is where a test function lives: at the library's global level,
// or owned by a single module.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeModule
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "module"
}

// Type is the lifecycle role of a test function.
type Type int

const (
	TypeMain Type = iota
	TypeExit
	TypeRegular
)

func (t Type) String() string {
	switch t {
	case TypeMain:
		return "main"
	case TypeExit:
		return "exit"
	default:
		return "regular"
	}
}

// NoModule is the module name used for a global-scope function (spec's "-").
const NoModule = "-"

// ErrReject is returned when a symbol does not match the test
// naming grammar (fewer than two tokens once split on "_"). Rejection
// during discovery is silent per spec; callers that want to log it
// can check errors.Is(err, ErrReject).
var ErrReject = errors.New("classify: symbol rejected")

// Classification is the result of classifying one symbol.
type Classification struct {
	Symbol string
	Scope  Scope
	Type   Type
	Module string
	Case   string
}

// Symbol classifies sym (which must already be known to begin with
// "test_") against the configured main/exit names, per the table in
// spec.md §3:
//
//	test_MAIN             -> global main
//	test_EXIT             -> global exit
//	test_<mod>            -> module main
//	test_<mod>_EXIT       -> module exit
//	test_<mod>_<rest...>  -> regular case "<rest...>" (joined by "_")
//
// The configured main/exit names are recognized only at the global
// level (first token after "test_") and at the tail of a module
// symbol; a module whose name equals the configured main name, in
// case position, collapses to the module-main form.
func Symbol(sym, mainName, exitName string) (Classification, error) {
	parts := strings.Split(sym, "_")
	if len(parts) <= 1 {
		return Classification{}, ErrReject
	}

	// parts[0] == "test"; the first token after it decides global vs module.
	if len(parts) == 2 {
		tail := parts[1]
		switch tail {
		case mainName:
			return Classification{Symbol: sym, Scope: ScopeGlobal, Type: TypeMain, Module: NoModule, Case: mainName}, nil
		case exitName:
			return Classification{Symbol: sym, Scope: ScopeGlobal, Type: TypeExit, Module: NoModule, Case: exitName}, nil
		default:
			// test_<mod> with no case token: this IS the module-main form.
			return Classification{Symbol: sym, Scope: ScopeModule, Type: TypeMain, Module: tail, Case: tail}, nil
		}
	}

	module := parts[1]
	caseName := strings.Join(parts[2:], "_")
	typ := TypeRegular
	if caseName == exitName {
		typ = TypeExit
	}
	return Classification{Symbol: sym, Scope: ScopeModule, Type: typ, Module: module, Case: caseName}, nil
}
