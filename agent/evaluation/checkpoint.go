// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

package evaluation

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/unimib-datAI/flhet/agent/logging"
)

// CheckpointFileName returns the file name of the model snapshot written after
// the given round.
func CheckpointFileName(round int) string {
	return fmt.Sprintf("model_after_round_%d.bin", round)
}

// writeCheckpoint persists the model's current weights under the output
// directory, in a file named after the round. A failed write is fatal for the
// round: the caller propagates the error and the round's results are lost.
func (ev *Evaluator) writeCheckpoint(round int) error {
	path := filepath.Join(ev.opts.OutputDir, CheckpointFileName(round))

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "Error while creating the model checkpoint file")
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(ev.model.Parameters()); err != nil {
		return errors.Wrap(err, "Error while encoding the model checkpoint")
	}

	if ev.opts.Monitor != nil {
		ev.opts.Monitor.ObserveCheckpoint()
	}

	logging.Logger().Infof("Model checkpoint written to %s", path)

	return nil
}

// ReadCheckpoint loads the weight tensors back from a checkpoint file.
func ReadCheckpoint(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Error while opening the model checkpoint file")
	}
	defer f.Close()

	var params [][]float64
	if err := gob.NewDecoder(f).Decode(&params); err != nil {
		return nil, errors.Wrap(err, "Error while decoding the model checkpoint")
	}

	return params, nil
}
