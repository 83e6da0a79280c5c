// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"time"

	"github.com/gnilk/shtest/internal/broker"
)

// ReturnCode is a classified test-function return value, per spec.md
// §6's stable ABI: 0=Pass, 16=Fail, 32=FailModule, 48=FailAll. Any
// other raw integer is Invalid.
type ReturnCode int

const (
	Pass ReturnCode = iota
	Fail
	FailModule
	FailAll
	Invalid
)

func (rc ReturnCode) String() string {
	switch rc {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case FailModule:
		return "FAIL_MODULE"
	case FailAll:
		return "FAIL_ALL"
	default:
		return "INVALID"
	}
}

// classifyReturn maps a raw C return code onto ReturnCode per spec.md
// §3/§6.
func classifyReturn(raw int32) ReturnCode {
	switch raw {
	case 0:
		return Pass
	case 16:
		return Fail
	case 32:
		return FailModule
	case 48:
		return FailAll
	default:
		return Invalid
	}
}

// Outcome is the permanent record produced from one case invocation
// (spec.md §3). Never mutated once the owning TestFunction reaches
// Finished.
type Outcome struct {
	Symbol      string
	RawReturn   int32
	Classified  ReturnCode
	FuncError   *broker.FuncError
	Duration    time.Duration
	SymbolError error // set instead of the above when symbol resolution itself failed
}

// Failed reports whether this outcome counts as a failure for
// reporting and exit-code purposes: anything that isn't a clean Pass.
func (o Outcome) Failed() bool {
	if o.SymbolError != nil {
		return true
	}
	if o.FuncError != nil {
		return true
	}
	return o.Classified != Pass
}

// newOutcome assembles an Outcome from a finished case's raw result
// and its broker snapshot, per spec.md §4.6 step 8: a failure record
// always wins over whatever integer the test returned.
func newOutcome(symbol string, snap broker.Snapshot, duration time.Duration) Outcome {
	o := Outcome{
		Symbol:    symbol,
		RawReturn: snap.RawResult,
		FuncError: snap.FuncError,
		Duration:  duration,
	}
	if snap.FuncError != nil {
		o.Classified = Fail
	} else {
		o.Classified = classifyReturn(snap.RawResult)
	}
	return o
}
