// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package capacity

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/unimib-datAI/flhet/agent/constants"
)

// This file contains the client to capacity assignment logic. Each split mode
// is implemented by its own assigner type; the Manager picks one at
// construction time based on the configured split mode.

// Assignment is a client index to width rate mapping. Valid is false when the
// Manager could not produce any assignment (unrecognized split mode); callers
// must check it before using Rates.
type Assignment struct {
	Valid bool
	Rates []float64
}

// NoAssignment is the sentinel returned when no assignment can be produced.
var NoAssignment = Assignment{}

// assigner computes the per-client rates for a given number of clients. Every
// split mode must implement this interface.
type assigner interface {
	assign(numUsers int) []float64
}

// Manager produces the round's client to capacity assignment. It holds no
// mutable state beyond the parsed spec, so Assign may be called from multiple
// contexts, provided a dynamic Manager is not sharing a non-thread-safe
// random source.
type Manager struct {
	splitMode string
	spec      *Spec

	// nil when the split mode is not recognized.
	assigner assigner
}

// NewManager parses the model mode string against the catalogue and builds the
// assignment strategy for the given split mode. A malformed mode string is a
// fatal error; an unrecognized split mode is not, and instead makes every
// Assign call return NoAssignment.
func NewManager(splitMode string, catalogue Catalogue, modeStr string) (*Manager, error) {
	spec, err := ParseSpec(modeStr, catalogue)
	if err != nil {
		return nil, err
	}

	manager := &Manager{splitMode: splitMode, spec: spec}

	switch splitMode {
	case constants.SplitModeFix:
		manager.assigner = &fixAssigner{spec: spec}
	case constants.SplitModeDynamic:
		manager.assigner = &dynamicAssigner{spec: spec}
	}

	return manager, nil
}

// SplitMode returns the split mode the Manager was built with.
func (manager *Manager) SplitMode() string {
	return manager.splitMode
}

// SetRandSource sets the random source used for dynamic draws, making them
// reproducible. It has no effect on other split modes. A nil source (the
// default) means a fresh i.i.d. draw on every call.
func (manager *Manager) SetRandSource(src rand.Source) {
	if dynamic, ok := manager.assigner.(*dynamicAssigner); ok {
		dynamic.src = src
	}
}

// Assign maps every client index in [0, numUsers) to a width rate. The result
// always has exactly numUsers rates. With an unrecognized split mode it
// returns NoAssignment instead.
func (manager *Manager) Assign(numUsers int) Assignment {
	if manager.assigner == nil {
		return NoAssignment
	}
	return Assignment{Valid: true, Rates: manager.assigner.assign(numUsers)}
}

// fixAssigner partitions the clients deterministically: each level gets
// numUsers / total(proportions) * proportion consecutive slots, in spec order.
// The remainder left over by the integer division is padded with the last
// level's rate, so recomputing with the same numUsers yields an identical
// assignment.
type fixAssigner struct {
	spec *Spec
}

func (a *fixAssigner) assign(numUsers int) []float64 {
	rates := make([]float64, 0, numUsers)

	base := numUsers / a.spec.total
	for _, share := range a.spec.shares {
		for i := 0; i < base*share.Proportion; i++ {
			rates = append(rates, share.Rate)
		}
	}

	// When the proportions do not divide numUsers evenly (or exceed it, which
	// makes base zero), the tail falls back to the last level's rate.
	last := a.spec.shares[len(a.spec.shares)-1].Rate
	for len(rates) < numUsers {
		rates = append(rates, last)
	}

	return rates
}

// dynamicAssigner draws numUsers independent categorical samples with
// replacement, weighting each level by its proportion. Successive calls are
// fresh draws; only the marginal frequencies are fixed.
type dynamicAssigner struct {
	spec *Spec
	src  rand.Source
}

func (a *dynamicAssigner) assign(numUsers int) []float64 {
	weights := make([]float64, len(a.spec.shares))
	for i, share := range a.spec.shares {
		weights[i] = float64(share.Proportion)
	}

	dist := distuv.NewCategorical(weights, a.src)

	rates := make([]float64, numUsers)
	for i := range rates {
		rates[i] = a.spec.shares[int(dist.Rand())].Rate
	}

	return rates
}
