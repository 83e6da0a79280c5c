// Copyright 2026 The shtest Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package catalog parses the textual output of a symbol lister (nm)
// into the ordered set of exported test symbols.
package catalog

import (
	"bufio"
	"io"
	"strings"
)

// symbolPrefix is the required prefix of a test-function symbol.
const symbolPrefix = "test_"

// textSymbolType is the nm type letter for a defined, globally
// visible text (code) symbol.
const textSymbolType = "T"

// Parse reads nm-style "<addr> <type> <name>" lines from r and returns
// the ordered list of names that are defined text symbols beginning
// with "test_". Lines that do not split into exactly three
// whitespace-separated fields are silently skipped, matching the
// nm output's mix of symbol lines and the occasional blank line or
// archive-member header.
func Parse(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 {
			continue
		}
		if fields[1] != textSymbolType {
			continue
		}
		if !strings.HasPrefix(fields[2], symbolPrefix) {
			continue
		}
		names = append(names, fields[2])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
