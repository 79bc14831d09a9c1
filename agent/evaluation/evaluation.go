// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

// The evaluation package builds the centralized evaluation callback invoked by
// the round orchestrator at the end of selected rounds. The callback loads the
// freshly aggregated parameters into the shared model, refreshes the model's
// running statistics over the entire training set, scores every client's
// held-out set plus a single global held-out set, and periodically persists
// the model weights to disk.
//
// The model, the scoring function and the data sources are external
// collaborators: the evaluator only wires them together.
package evaluation

// Batch is one (inputs, labels) pair produced by a data loader.
type Batch struct {
	Inputs [][]float64
	Labels []int
}

// Loader is an in-order iterable collection of batches.
type Loader []Batch

// Bundle groups the data sources the evaluator consumes. The i-th client test
// loader is paired with the i-th label split, the subset of labels that client
// was distributed with.
type Bundle struct {
	// The loader covering the entire training population, used only to refresh
	// the model's running statistics before scoring.
	EntireTrain Loader

	// The single global held-out test set.
	GlobalTest Loader

	// One held-out test loader per client.
	ClientTests []Loader

	// LabelSplits[i] lists the labels client i holds data for.
	LabelSplits [][]int
}

// Model is the shared network instance under evaluation. The evaluator
// mutates it in place (parameter load, statistics refresh), so the callback
// must not run concurrently on the same instance.
type Model interface {
	// Parameters returns the model's weight tensors in declared order.
	Parameters() [][]float64

	// SetParameters replaces every weight tensor with the given ones, in
	// declared order. A length mismatch with the model's parameter count must
	// be rejected with an error; no partial load may happen.
	SetParameters(params [][]float64) error

	// RefreshStats runs a single forward pass over the batch without updating
	// any weights, giving the model an opportunity to update whatever running
	// aggregates it maintains internally. In a federated setting those
	// aggregates reflect only the last-trained client's data until refreshed
	// over the full population.
	RefreshStats(batch Batch)
}

// TestFunc scores the model over one loader and returns the resulting loss and
// accuracy. A nil labelSplit means no label restriction (global test set).
type TestFunc func(model Model, loader Loader, labelSplit []int) (loss float64, accuracy float64, err error)

// RoundMetrics holds the statistics of one fully evaluated round. The local
// values are sums over all client test sets, not means; divide by the client
// count if a mean is needed.
type RoundMetrics struct {
	GlobalLoss     float64
	GlobalAccuracy float64
	LocalLoss      float64
	LocalAccuracy  float64
}

// EvaluateFn is the callback signature the round orchestrator invokes with
// the round number, the aggregated parameters and an opaque config (reserved
// for the orchestrator, ignored here). The returned loss is the primary
// convergence metric; the map carries the auxiliary breakdowns.
type EvaluateFn func(round int, params [][]float64, config map[string]interface{}) (float64, map[string]float64, error)
