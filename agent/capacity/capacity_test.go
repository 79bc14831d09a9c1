// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package capacity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCatalogue(t *testing.T) {
	ass := require.New(t)

	var tests = []struct {
		list    string
		want    Catalogue
		success bool
	}{
		{"a:1.0,b:0.5", Catalogue{"a": 1.0, "b": 0.5}, true},
		{" a : 1.0 , b : 0.5 , c : 0.25 ", Catalogue{"a": 1.0, "b": 0.5, "c": 0.25}, true},
		{"a:1.0,,b:0.5,", Catalogue{"a": 1.0, "b": 0.5}, true},
		{"a:1.0,b:half", nil, false},  // non-numeric rate
		{"a:1.0,b:0", nil, false},     // rate outside (0, 1]
		{"a:1.0,b:1.5", nil, false},   // rate outside (0, 1]
		{"a:1.0,a:0.5", nil, false},   // duplicate level
		{"ab:1.0", nil, false},        // multi-character level
		{"a-1.0", nil, false},         // missing separator
		{"", nil, false},              // empty catalogue
	}

	for _, tt := range tests {
		catalogue, err := ParseCatalogue(tt.list)

		if tt.success {
			ass.NoError(err)
			ass.Equal(tt.want, catalogue)
		} else {
			ass.Error(err)
		}
	}
}

func TestParseSpec(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5, "c": 0.25}

	var tests = []struct {
		modeStr    string
		wantLevels []string
		wantTotal  int
		success    bool
	}{
		{"a1-b2-c1", []string{"a", "b", "c"}, 4, true},
		{"a1", []string{"a"}, 1, true},
		{"a10-b0", []string{"a", "b"}, 10, true}, // zero proportion is legal
		{"a0-b0", nil, 0, false},                 // zero total is not
		{"a1-z1", nil, 0, false},                 // unknown level token
		{"a1-bx", nil, 0, false},                 // non-numeric proportion
		{"a1--b1", nil, 0, false},                // empty token
		{"", nil, 0, false},
	}

	for _, tt := range tests {
		spec, err := ParseSpec(tt.modeStr, catalogue)

		if tt.success {
			ass.NoError(err)
			ass.Equal(tt.wantLevels, spec.Levels())
			ass.Equal(tt.wantTotal, spec.total)
		} else {
			ass.Error(err)
		}
	}
}

func TestGlobalLevel(t *testing.T) {
	ass := require.New(t)

	level, err := GlobalLevel("a1-b2-c1")
	ass.NoError(err)
	ass.Equal("a", level)

	level, err = GlobalLevel("b4")
	ass.NoError(err)
	ass.Equal("b", level)

	_, err = GlobalLevel("")
	ass.Error(err)
}
