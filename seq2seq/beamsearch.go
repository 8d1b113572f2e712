// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seq

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/nlpodyssey/spago/mat"
	"github.com/nlpodyssey/spago/mat/float"
	"github.com/rs/zerolog/log"
)

var floatNegInf = float.Interface(math.Inf(-1))

// State is the opaque decoder state owned by a Stepper.
type State any

// Stepper produces per-step next-token distributions for the beam engine.
type Stepper interface {
	// Encode consumes the source token sequence and returns the initial
	// decoder state. inputLengths may be nil.
	Encode(input []int, inputLengths []int) (State, error)
	// Step extends the state with the previously emitted token and returns
	// the logits over the extended vocabulary together with the new state.
	Step(state State, prevToken int, extVocabSize int) (mat.Matrix, State, error)
}

// BeamSearcherConfig configures a BeamSearcher.
type BeamSearcherConfig struct {
	// SOS is the start-of-sequence token fed to the first step.
	SOS int
	// EOS is the end-of-sequence token that completes a hypothesis.
	EOS int
	// DefaultMaxLen bounds the output length when a search does not
	// specify its own.
	DefaultMaxLen int
	// IsWord classifies tokens for word-counted length bounds. When nil,
	// every token counts as a word.
	IsWord func(token int) bool
}

// BeamSearcher is a reference Model implementation that drives a Stepper
// through beam-search decoding.
type BeamSearcher struct {
	stepper Stepper
	conf    BeamSearcherConfig
}

func NewBeamSearcher(stepper Stepper, conf BeamSearcherConfig) *BeamSearcher {
	if conf.DefaultMaxLen <= 0 {
		conf.DefaultMaxLen = 100
	}
	return &BeamSearcher{stepper: stepper, conf: conf}
}

// Eval puts the searcher into inference mode. The engine holds no gradient
// state, so there is nothing to toggle.
func (b *BeamSearcher) Eval() {}

// beamItem pairs a hypothesis with the decoder state needed to extend it.
type beamItem struct {
	hyp   Hypothesis
	state State
	prev  int
}

// BeamSearch decodes one input example into at most opts.BeamSize
// hypotheses, ranked best-first by length-normalized score.
func (b *BeamSearcher) BeamSearch(ctx context.Context, input []int, inputLengths []int, extVocabSize int, opts SearchOptions) ([]Hypothesis, error) {
	beamSize := opts.BeamSize
	if beamSize <= 0 {
		beamSize = 1
	}
	maxLen := opts.MaxOutLen
	if maxLen <= 0 {
		maxLen = b.conf.DefaultMaxLen
	}

	state, err := b.stepper.Encode(input, inputLengths)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	live := []beamItem{{state: state, prev: b.conf.SOS}}
	var complete []Hypothesis

	for step := 0; step < maxLen && len(complete) < beamSize && len(live) > 0; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var candidates []beamItem
		for _, it := range live {
			logits, next, err := b.stepper.Step(it.state, it.prev, extVocabSize)
			if err != nil {
				return nil, fmt.Errorf("decode step %d failed: %w", step, err)
			}
			if size := logits.Size(); size < extVocabSize {
				return nil, fmt.Errorf("step returned %d logits, expected at least %d", size, extVocabSize)
			}
			if it.hyp.Len(opts.LenInWords) < opts.MinOutLen {
				logits.SetVecScalar(b.conf.EOS, floatNegInf)
			}
			probs := logits.Softmax().Data().F64()
			for _, tok := range topIndices(probs, beamSize) {
				p := probs[tok]
				if p <= 0 {
					continue
				}
				candidates = append(candidates, beamItem{
					hyp:   it.hyp.Extended(tok, math.Log(p), b.tokenIsWord(tok)),
					state: next,
					prev:  tok,
				})
			}
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].hyp.LogProb > candidates[j].hyp.LogProb
		})

		live = live[:0]
		for _, it := range candidates {
			if len(complete) >= beamSize {
				break
			}
			if it.prev == b.conf.EOS {
				complete = append(complete, it.hyp)
			} else if len(live) < beamSize {
				live = append(live, it)
			}
		}
	}

	// When the length bound cuts the search short, the best incomplete
	// hypotheses fill the remainder.
	for _, it := range live {
		if len(complete) >= beamSize {
			break
		}
		complete = append(complete, it.hyp)
	}
	if len(complete) == 0 {
		return nil, fmt.Errorf("beam search produced no hypotheses")
	}

	sort.SliceStable(complete, func(i, j int) bool {
		return complete[i].AvgLogProb() > complete[j].AvgLogProb()
	})
	if len(complete) > beamSize {
		complete = complete[:beamSize]
	}
	log.Trace().Msgf("beam search produced %d hypotheses, best avg log-prob %f", len(complete), complete[0].AvgLogProb())
	return complete, nil
}

func (b *BeamSearcher) tokenIsWord(tok int) bool {
	if b.conf.IsWord == nil {
		return true
	}
	return b.conf.IsWord(tok)
}

// topIndices returns the indices of the k largest values, largest first.
func topIndices(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values[idx[i]] > values[idx[j]]
	})
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}
