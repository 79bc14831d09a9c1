// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package capacity

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unimib-datAI/flhet/agent/constants"
)

func TestFixAssignHalfAndHalf(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5}
	manager, err := NewManager(constants.SplitModeFix, catalogue, "a1-b1")
	ass.NoError(err)

	assignment := manager.Assign(10)
	ass.True(assignment.Valid)

	// 5 clients at rate 1.0 followed by 5 at rate 0.5, order preserved.
	want := []float64{1.0, 1.0, 1.0, 1.0, 1.0, 0.5, 0.5, 0.5, 0.5, 0.5}
	ass.Equal(want, assignment.Rates)
}

func TestFixAssignDeterministic(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5, "c": 0.25}
	manager, err := NewManager(constants.SplitModeFix, catalogue, "a1-b2-c1")
	ass.NoError(err)

	first := manager.Assign(100)
	second := manager.Assign(100)
	ass.True(first.Valid)
	ass.Equal(first.Rates, second.Rates)
}

func TestFixAssignProportionality(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5, "c": 0.25}
	manager, err := NewManager(constants.SplitModeFix, catalogue, "a1-b2-c1")
	ass.NoError(err)

	// numUsers is an exact multiple of the proportion sum (4), so each level
	// gets exactly k * proportion clients.
	assignment := manager.Assign(40)
	ass.True(assignment.Valid)
	ass.Len(assignment.Rates, 40)

	counts := map[float64]int{}
	for _, rate := range assignment.Rates {
		counts[rate]++
	}
	ass.Equal(10, counts[1.0])
	ass.Equal(20, counts[0.5])
	ass.Equal(10, counts[0.25])
}

func TestFixAssignLength(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5, "c": 0.25}
	manager, err := NewManager(constants.SplitModeFix, catalogue, "a1-b2-c1")
	ass.NoError(err)

	// The assignment always covers every client exactly once, whether or not
	// the proportion sum divides numUsers.
	for _, numUsers := range []int{0, 1, 3, 4, 5, 7, 40, 41, 100} {
		assignment := manager.Assign(numUsers)
		ass.True(assignment.Valid)
		ass.Len(assignment.Rates, numUsers)
	}
}

func TestFixAssignDegenerate(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5}
	manager, err := NewManager(constants.SplitModeFix, catalogue, "a3-b3")
	ass.NoError(err)

	// numUsers below the proportion sum makes the per-level base count zero,
	// so every client falls back to the last level's rate.
	assignment := manager.Assign(4)
	ass.True(assignment.Valid)
	ass.Equal([]float64{0.5, 0.5, 0.5, 0.5}, assignment.Rates)
}

func TestFixAssignZeroProportion(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5}
	manager, err := NewManager(constants.SplitModeFix, catalogue, "b0-a2")
	ass.NoError(err)

	// A zero-proportion level contributes no clients.
	assignment := manager.Assign(8)
	ass.True(assignment.Valid)
	for _, rate := range assignment.Rates {
		ass.Equal(1.0, rate)
	}
}

func TestDynamicAssignDistribution(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5, "c": 0.25}
	manager, err := NewManager(constants.SplitModeDynamic, catalogue, "a1-b2-c1")
	ass.NoError(err)
	manager.SetRandSource(rand.NewPCG(42, 42))

	const numUsers = 100000
	assignment := manager.Assign(numUsers)
	ass.True(assignment.Valid)
	ass.Len(assignment.Rates, numUsers)

	counts := map[float64]int{}
	for _, rate := range assignment.Rates {
		counts[rate]++
	}

	// Empirical frequencies converge to proportion / sum(proportions).
	ass.InDelta(0.25, float64(counts[1.0])/numUsers, 0.01)
	ass.InDelta(0.50, float64(counts[0.5])/numUsers, 0.01)
	ass.InDelta(0.25, float64(counts[0.25])/numUsers, 0.01)
}

func TestDynamicAssignZeroProportion(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5}
	manager, err := NewManager(constants.SplitModeDynamic, catalogue, "a1-b0")
	ass.NoError(err)
	manager.SetRandSource(rand.NewPCG(7, 7))

	// A zero-proportion level has probability zero.
	assignment := manager.Assign(1000)
	ass.True(assignment.Valid)
	for _, rate := range assignment.Rates {
		ass.Equal(1.0, rate)
	}
}

func TestUnknownSplitMode(t *testing.T) {
	ass := require.New(t)

	catalogue := Catalogue{"a": 1.0, "b": 0.5}
	manager, err := NewManager("bogus", catalogue, "a1-b1")
	ass.NoError(err)

	// Unrecognized split modes yield the explicit no-assignment sentinel, not
	// a panic or an error.
	assignment := manager.Assign(10)
	ass.False(assignment.Valid)
	ass.Nil(assignment.Rates)
	ass.Equal(NoAssignment, assignment)
}
