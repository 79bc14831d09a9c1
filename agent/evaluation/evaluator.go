// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package evaluation

import (
	"time"

	"github.com/pkg/errors"

	"github.com/unimib-datAI/flhet/agent/constants"
	"github.com/unimib-datAI/flhet/agent/logging"
	"github.com/unimib-datAI/flhet/agent/metrics"
)

// Options configures the evaluation cadence and the checkpoint policy. Zero
// values fall back to the defaults from the constants package.
type Options struct {
	// A full evaluation runs only when the round is a multiple of
	// EvalInterval, or once FinalPhaseRound is reached.
	EvalInterval    int
	FinalPhaseRound int

	// Model weights are persisted on every round that is a multiple of
	// CheckpointInterval (among qualifying rounds), into OutputDir. A negative
	// CheckpointInterval disables checkpointing.
	CheckpointInterval int
	OutputDir          string

	// Optional Prometheus monitor updated on every fully evaluated round.
	Monitor *metrics.Monitor
}

// Evaluator holds the collaborators of the evaluation callback. Build it with
// New and hand Callback() to the round orchestrator.
type Evaluator struct {
	model  Model
	test   TestFunc
	bundle Bundle
	opts   Options
}

// New builds an Evaluator around the shared model, the scoring function and
// the data source bundle.
func New(model Model, test TestFunc, bundle Bundle, opts Options) (*Evaluator, error) {
	if model == nil {
		return nil, errors.New("Evaluator needs a model")
	}
	if test == nil {
		return nil, errors.New("Evaluator needs a test function")
	}
	if len(bundle.ClientTests) != len(bundle.LabelSplits) {
		return nil, errors.Errorf("Got %d client test loaders but %d label splits",
			len(bundle.ClientTests), len(bundle.LabelSplits))
	}

	if opts.EvalInterval <= 0 {
		opts.EvalInterval = constants.DefaultEvalInterval
	}
	if opts.FinalPhaseRound <= 0 {
		opts.FinalPhaseRound = constants.DefaultFinalPhaseRound
	}
	if opts.CheckpointInterval == 0 {
		opts.CheckpointInterval = constants.DefaultCheckpointInterval
	}

	return &Evaluator{model: model, test: test, bundle: bundle, opts: opts}, nil
}

// Callback returns the evaluation function for the round orchestrator. Rounds
// that do not qualify under the cadence policy return the placeholder loss and
// an empty metrics map without touching the model or any loader.
func (ev *Evaluator) Callback() EvaluateFn {
	return func(round int, params [][]float64, config map[string]interface{}) (float64, map[string]float64, error) {
		if !ev.shouldEvaluate(round) {
			return constants.SkippedRoundLoss, map[string]float64{}, nil
		}

		logger := logging.Logger()

		if err := ev.model.SetParameters(params); err != nil {
			return 0, nil, errors.Wrap(err, "Error while loading the aggregated parameters into the shared model")
		}

		if ev.shouldCheckpoint(round) {
			if err := ev.writeCheckpoint(round); err != nil {
				return 0, nil, err
			}
		}

		start := time.Now()
		ev.refreshStats()
		logger.Debugf("Refreshed model statistics over the entire training set in %v", time.Since(start))

		roundMetrics, err := ev.score()
		if err != nil {
			return 0, nil, err
		}

		if ev.opts.Monitor != nil {
			ev.opts.Monitor.ObserveRound(roundMetrics.GlobalLoss, roundMetrics.GlobalAccuracy,
				roundMetrics.LocalLoss, roundMetrics.LocalAccuracy)
		}

		logger.Infof("Round %d evaluated: global accuracy %.4f, summed local accuracy %.4f",
			round, roundMetrics.GlobalAccuracy, roundMetrics.LocalAccuracy)

		return roundMetrics.GlobalLoss, map[string]float64{
			"global_accuracy": roundMetrics.GlobalAccuracy,
			"local_loss":      roundMetrics.LocalLoss,
			"local_accuracy":  roundMetrics.LocalAccuracy,
		}, nil
	}
}

// shouldEvaluate implements the cadence policy: every EvalInterval-th round,
// and every round from FinalPhaseRound onwards.
func (ev *Evaluator) shouldEvaluate(round int) bool {
	return round%ev.opts.EvalInterval == 0 || round >= ev.opts.FinalPhaseRound
}

// shouldCheckpoint decides whether this qualifying round also persists the
// model weights. Pure; the write itself happens in writeCheckpoint.
func (ev *Evaluator) shouldCheckpoint(round int) bool {
	return ev.opts.CheckpointInterval > 0 && round%ev.opts.CheckpointInterval == 0
}

// refreshStats runs one full no-gradient pass over the entire training set so
// the model can update its running aggregates before scoring.
func (ev *Evaluator) refreshStats() {
	for _, batch := range ev.bundle.EntireTrain {
		ev.model.RefreshStats(batch)
	}
}

// score computes the round's metrics: the per-client losses and accuracies
// summed over all client test sets, and a single global test. Empty loaders
// contribute zero instead of failing the whole pass.
func (ev *Evaluator) score() (RoundMetrics, error) {
	var roundMetrics RoundMetrics

	for i, loader := range ev.bundle.ClientTests {
		if len(loader) == 0 {
			continue
		}

		loss, accuracy, err := ev.test(ev.model, loader, ev.bundle.LabelSplits[i])
		if err != nil {
			return RoundMetrics{}, errors.Wrapf(err, "Error while testing client %d", i)
		}

		roundMetrics.LocalLoss += loss
		roundMetrics.LocalAccuracy += accuracy
	}

	if len(ev.bundle.GlobalTest) > 0 {
		loss, accuracy, err := ev.test(ev.model, ev.bundle.GlobalTest, nil)
		if err != nil {
			return RoundMetrics{}, errors.Wrap(err, "Error while testing on the global test set")
		}

		roundMetrics.GlobalLoss = loss
		roundMetrics.GlobalAccuracy = accuracy
	}

	return roundMetrics, nil
}
