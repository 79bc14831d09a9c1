// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package constants

// This package contains only some constants

const (
	// SplitModeFix assigns capacities with a one-time deterministic partition.
	SplitModeFix = "fix"

	// SplitModeDynamic draws a fresh random assignment every round.
	SplitModeDynamic = "dynamic"

	// DefaultEvalInterval is the number of rounds between two full evaluations.
	DefaultEvalInterval = 5

	// DefaultFinalPhaseRound is the round from which every round is evaluated,
	// regardless of the evaluation interval.
	DefaultFinalPhaseRound = 395

	// DefaultCheckpointInterval is the number of rounds between two model
	// checkpoints. Only qualifying rounds are checkpointed.
	DefaultCheckpointInterval = 100

	// SkippedRoundLoss is the placeholder loss returned for rounds that do not
	// qualify for a full evaluation. Part of the contract with the round
	// orchestrator, which may use the loss for convergence tracking.
	SkippedRoundLoss = 1
)
