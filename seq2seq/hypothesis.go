// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seq

// Hypothesis is one candidate output sequence tracked during beam search.
// Values are immutable per step: Extended returns a new Hypothesis instead
// of mutating the receiver.
type Hypothesis struct {
	// Tokens is the sequence of token indices produced so far, including
	// the end-of-sequence token once emitted.
	Tokens []int
	// LogProb is the cumulative log-probability of the sequence.
	LogProb float64
	// NumNonWords counts tokens that do not count toward word-based
	// output length bounds.
	NumNonWords int
}

// Extended returns a copy of the hypothesis with one more token appended and
// its log-probability accumulated.
func (h Hypothesis) Extended(token int, logProb float64, isWord bool) Hypothesis {
	tokens := make([]int, len(h.Tokens), len(h.Tokens)+1)
	copy(tokens, h.Tokens)
	ext := Hypothesis{
		Tokens:      append(tokens, token),
		LogProb:     h.LogProb + logProb,
		NumNonWords: h.NumNonWords,
	}
	if !isWord {
		ext.NumNonWords++
	}
	return ext
}

// Len returns the output length in the configured unit: tokens, or word-like
// units only when inWords is true.
func (h Hypothesis) Len(inWords bool) int {
	if inWords {
		return len(h.Tokens) - h.NumNonWords
	}
	return len(h.Tokens)
}

// AvgLogProb returns the length-normalized cumulative log-probability.
// It is zero for an empty hypothesis.
func (h Hypothesis) AvgLogProb() float64 {
	if len(h.Tokens) == 0 {
		return 0
	}
	return h.LogProb / float64(len(h.Tokens))
}
