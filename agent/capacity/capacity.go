// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright 2021-2025 The FLHet Authors. All rights reserved.
// This file is licensed under the AGPL v3.0 or later license. See LICENSE and
// AUTHORS file for more information.

// The capacity package decides which sub-model width each simulated client
// trains. A static catalogue maps capacity levels (single-letter tokens) to
// width rates, and a model mode string gives the relative proportion of
// clients per level. The Manager turns both into a client index to rate
// assignment, either as a one-time deterministic partition ("fix" split mode)
// or as a fresh categorical draw every call ("dynamic" split mode).
package capacity

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Catalogue maps a capacity level token to its width rate in (0, 1]. It is
// built once at startup and never mutated afterwards.
type Catalogue map[string]float64

// ParseCatalogue parses a catalogue string of "<level>:<rate>" pairs joined by
// ",". For example "a:1.0,b:0.5". Levels must be single characters and rates
// must be in (0, 1].
func ParseCatalogue(list string) (Catalogue, error) {
	catalogue := Catalogue{}

	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		level, rateStr, found := strings.Cut(pair, ":")
		if !found {
			return nil, errors.Errorf("Invalid capacity catalogue entry %q: missing \":\" separator", pair)
		}

		level = strings.TrimSpace(level)
		if utf8.RuneCountInString(level) != 1 {
			return nil, errors.Errorf("Invalid capacity level %q: levels must be single characters", level)
		}

		rate, err := strconv.ParseFloat(strings.TrimSpace(rateStr), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid rate for capacity level %q", level)
		}
		if rate <= 0 || rate > 1 {
			return nil, errors.Errorf("Rate %g for capacity level %q is outside (0, 1]", rate, level)
		}

		if _, dup := catalogue[level]; dup {
			return nil, errors.Errorf("Duplicate capacity level %q in catalogue", level)
		}
		catalogue[level] = rate
	}

	if len(catalogue) == 0 {
		return nil, errors.New("Empty capacity catalogue")
	}

	return catalogue, nil
}

// levelShare is one parsed token of the model mode string: a capacity level,
// its rate from the catalogue and its integer proportion of clients.
type levelShare struct {
	Level      string
	Rate       float64
	Proportion int
}

// Spec is the parsed model mode string: an ordered list of levels with their
// proportions. It is parsed once at construction and never re-parsed per call.
type Spec struct {
	shares []levelShare
	total  int // sum of all proportions
}

// ParseSpec parses a model mode string of "<level><integer-proportion>" tokens
// joined by "-", for example "a1-b2-c1", resolving each level's rate against
// the catalogue. A malformed token or a level missing from the catalogue is a
// fatal error, since the spec cannot self-repair after construction.
func ParseSpec(modeStr string, catalogue Catalogue) (*Spec, error) {
	spec := &Spec{}

	for _, token := range strings.Split(modeStr, "-") {
		if token == "" {
			return nil, errors.Errorf("Empty token in model mode string %q", modeStr)
		}

		level := token[:1]
		rate, known := catalogue[level]
		if !known {
			return nil, errors.Errorf("Capacity level %q of model mode token %q is not in the catalogue", level, token)
		}

		proportion, err := strconv.Atoi(token[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid proportion in model mode token %q", token)
		}
		if proportion < 0 {
			return nil, errors.Errorf("Negative proportion in model mode token %q", token)
		}

		spec.shares = append(spec.shares, levelShare{Level: level, Rate: rate, Proportion: proportion})
		spec.total += proportion
	}

	if spec.total == 0 {
		return nil, errors.Errorf("Model mode string %q has zero total proportion", modeStr)
	}

	return spec, nil
}

// Levels returns the level tokens in spec order.
func (spec *Spec) Levels() []string {
	levels := make([]string, len(spec.shares))
	for i, share := range spec.shares {
		levels[i] = share.Level
	}
	return levels
}

// GlobalLevel returns the capacity level of the global model, which is the
// level of the first token of the model mode string.
func GlobalLevel(modeStr string) (string, error) {
	first := strings.SplitN(modeStr, "-", 2)[0]
	if first == "" {
		return "", errors.Errorf("Cannot derive the global model level from model mode string %q", modeStr)
	}
	return first[:1], nil
}
