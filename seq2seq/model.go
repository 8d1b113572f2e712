// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seq2seq defines the boundary to the trained sequence-to-sequence
// network and provides a reference beam-search engine over it.
package seq2seq

import "context"

// SearchOptions contains the knobs of one beam-search invocation.
type SearchOptions struct {
	// BeamSize is the number of hypotheses kept per step and returned.
	BeamSize int
	// MinOutLen is a hard floor: no hypothesis emits the end-of-sequence
	// token before this many output units have been produced.
	MinOutLen int
	// MaxOutLen bounds the output length. Zero means the model's own
	// default bound.
	MaxOutLen int
	// LenInWords counts only word-like units toward the length bounds,
	// excluding punctuation-only tokens. It affects termination timing,
	// not scoring.
	LenInWords bool
}

// Model is the interface the prediction pipeline needs from a trained
// sequence-to-sequence network with a copy mechanism.
type Model interface {
	// BeamSearch decodes one encoded input into at most BeamSize
	// hypotheses, ranked best-first by length-normalized score.
	// inputLengths is an optimization hint; nil must be semantically
	// equivalent to passing the true lengths.
	BeamSearch(ctx context.Context, input []int, inputLengths []int, extVocabSize int, opts SearchOptions) ([]Hypothesis, error)
	// Eval puts the model into inference mode. It must be called before a
	// dataset pass and holds for every BeamSearch call during it.
	Eval()
}
