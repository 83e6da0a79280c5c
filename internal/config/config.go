// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config parses the shtest command line into an immutable
// Config value, modeled on cmd/greplogs's flag.FlagSet-plus-custom-Value
// style rather than a third-party flag library: the original golang-build
// CLIs all stick to the standard flag package, and shtest's surface is
// small enough not to need more.
package config

import (
	"flag"
	"fmt"
	"strings"
)

// all is the sentinel CSV value meaning "every module" / "every case".
const all = "-"

// Config is the parsed, immutable command-line configuration (spec.md
// §3). It is constructed once by Parse and passed down explicitly —
// never a package-level singleton; see DESIGN.md's Open Question
// resolution on this point.
type Config struct {
	Verbosity int

	Modules   stringList
	TestCases stringList

	MainFuncName string
	ExitFuncName string

	ReportModule string
	ReportOutput string
	ReportIndent int

	Execute          bool
	List             bool
	PrintSummary     bool
	TestGlobals      bool
	TestGlobalMain   bool
	SkipOnModuleFail bool
	StopOnAllFail    bool
	SuppressProgress bool
	DiscardReturnCode bool

	Inputs []string
}

// stringList is a CSV-accumulating flag.Value, modeled on
// cmd/greplogs/flags.go's regexpList: each -m/-t flag occurrence (or a
// single comma-separated occurrence) appends to the set. "-" means
// "match everything" and short-circuits individual entries.
type stringList struct {
	values []string
	all    bool
}

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(s.values, ",")
}

func (s *stringList) Set(v string) error {
	for _, field := range strings.Split(v, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if field == all {
			s.all = true
			continue
		}
		s.values = append(s.values, field)
	}
	return nil
}

// Matches reports whether name passes this list's filter: everything
// matches an empty-or-"-" list, otherwise name must appear verbatim.
func (s stringList) Matches(name string) bool {
	if s.all || len(s.values) == 0 {
		return true
	}
	for _, v := range s.values {
		if v == name {
			return true
		}
	}
	return false
}

// MatchesModule reports whether moduleName passes the configured -m
// filter (spec.md §4.7's module selection).
func (c *Config) MatchesModule(moduleName string) bool {
	return c.Modules.Matches(moduleName)
}

// MatchesCase reports whether caseName passes the configured -t filter
// (spec.md §4.6's shouldExecute precondition).
func (c *Config) MatchesCase(caseName string) bool {
	return c.TestCases.Matches(caseName)
}

// verbosity is a repeatable -v flag counting its own occurrences,
// modeled on the same flag.Value pattern as stringList.
type verbosity int

func (v *verbosity) String() string { return fmt.Sprintf("%d", int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(string) error {
	*v++
	return nil
}

// Parse builds a Config from args (typically os.Args[1:]), per
// SPEC_FULL.md §6's flag inventory.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("shtest", flag.ContinueOnError)

	var verb verbosity
	var modules, testcases stringList

	fs.Var(&verb, "v", "increase log verbosity (repeatable)")
	fs.Var(&modules, "m", "comma-separated list of modules to run (\"-\" for all)")
	fs.Var(&testcases, "t", "comma-separated list of test cases to run (\"-\" for all)")

	mainFuncName := fs.String("main-func-name", "main", "symbol suffix identifying a module/global main function")
	exitFuncName := fs.String("exit-func-name", "exit", "symbol suffix identifying a module/global exit function")

	reportModule := fs.String("R", "console", "reporting module: console|markdown")
	reportOutput := fs.String("O", "-", "reporting output path (\"-\" for stdout)")
	reportIndent := fs.Int("report-indent", 8, "report indent (stored in Config; no reporter reads it)")

	execute := fs.Bool("x", true, "execute tests")
	list := fs.Bool("l", false, "list tests (execution still follows -x)")
	summary := fs.Bool("S", false, "print pass summary (stored in Config; no reporter reads it)")
	testGlobals := fs.Bool("g", true, "test module globals")
	testGlobalMain := fs.Bool("G", true, "test global main")
	skipOnModuleFail := fs.Bool("c", true, "skip remaining cases in a module on FAIL_MODULE")
	stopOnAllFail := fs.Bool("C", true, "stop all remaining execution on FAIL_ALL")
	suppressProgress := fs.Bool("s", false, "suppress per-case progress output")
	discardReturnCode := fs.Bool("r", false, "discard test return code (never affect process exit code)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	return &Config{
		Verbosity:         int(verb),
		Modules:           modules,
		TestCases:         testcases,
		MainFuncName:      *mainFuncName,
		ExitFuncName:      *exitFuncName,
		ReportModule:      *reportModule,
		ReportOutput:      *reportOutput,
		ReportIndent:      *reportIndent,
		Execute:           *execute,
		List:              *list,
		PrintSummary:      *summary,
		TestGlobals:       *testGlobals,
		TestGlobalMain:    *testGlobalMain,
		SkipOnModuleFail:  *skipOnModuleFail,
		StopOnAllFail:     *stopOnAllFail,
		SuppressProgress:  *suppressProgress,
		DiscardReturnCode: *discardReturnCode,
		Inputs:            inputs,
	}, nil
}
