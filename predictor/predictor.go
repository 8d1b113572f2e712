// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package predictor decodes mnemonic labeling batches against a trained
// model and aggregates per-example predictions over a dataset.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/welllogml/curvelabel/dataset"
	"github.com/welllogml/curvelabel/params"
	"github.com/welllogml/curvelabel/seq2seq"
	"github.com/welllogml/curvelabel/vocab"
)

var (
	// ErrInvalidBatchSize reports a batch that does not contain exactly
	// one example.
	ErrInvalidBatchSize = errors.New("batch must contain exactly one example")
	// ErrDegenerateScore reports a top hypothesis whose probability score
	// is undefined: it is empty, or its average log-probability is not
	// strictly negative.
	ErrDegenerateScore = errors.New("top hypothesis has no defined probability score")
)

// Options controls the decoding of one batch.
type Options struct {
	// PackSeq passes explicit input lengths to the model; otherwise the
	// model receives nil, which must be semantically equivalent.
	PackSeq bool
	// BeamSize is the beam width.
	BeamSize int
	// MinOutLen is the required minimum output length.
	MinOutLen int
	// MaxOutLen is the required maximum output length; zero means the
	// model's own bound.
	MaxOutLen int
	// LenInWords counts output length in words instead of tokens.
	LenInWords bool
	// BestOnly decodes only the top-ranked hypothesis.
	BestOnly bool
	// Details derives the predicted label from the decoded output; without
	// it the label is absent and aggregation skips the example.
	Details bool
}

// Prediction is the outcome of decoding one example.
type Prediction struct {
	// Label is the predicted label, or empty when absent.
	Label string
	// Candidates holds the detokenized non-best hypotheses when BestOnly
	// is off.
	Candidates []string
	// Mnemonic is the ground-truth identifier extracted from the source.
	Mnemonic string
	// Score is log10 of the negated average log-probability of the top
	// hypothesis.
	Score float64
}

// EvalBatch decodes exactly one example and produces a Prediction.
func EvalBatch(ctx context.Context, batch *dataset.Batch, model seq2seq.Model, v *vocab.Vocab, opts Options) (Prediction, error) {
	if len(batch.Examples) != 1 {
		return Prediction{}, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, len(batch.Examples))
	}

	lengths := batch.InputLengths
	if !opts.PackSeq {
		lengths = nil
	}
	hypotheses, err := model.BeamSearch(ctx, batch.Input[0], lengths, batch.ExtVocabSize, seq2seq.SearchOptions{
		BeamSize:   opts.BeamSize,
		MinOutLen:  opts.MinOutLen,
		MaxOutLen:  opts.MaxOutLen,
		LenInWords: opts.LenInWords,
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("beam search failed: %w", err)
	}
	if len(hypotheses) == 0 {
		return Prediction{}, fmt.Errorf("beam search returned no hypotheses")
	}

	best := hypotheses[0]
	avgLogProb := best.AvgLogProb()
	if len(best.Tokens) == 0 || avgLogProb >= 0 {
		return Prediction{}, fmt.Errorf("%w: average log-probability %g", ErrDegenerateScore, avgLogProb)
	}
	pred := Prediction{Score: math.Log10(-avgLogProb)}

	toDecode := [][]int{best.Tokens}
	if !opts.BestOnly {
		toDecode = make([][]int, len(hypotheses))
		for i, h := range hypotheses {
			toDecode[i] = h.Tokens
		}
	}
	decoded := vocab.DecodeSequences(toDecode, v, batch.OOV)
	for _, doc := range decoded[1:] {
		pred.Candidates = append(pred.Candidates, vocab.FormatTokens(doc))
	}

	src := strings.Fields(vocab.FormatTokens(batch.Examples[0].Src))
	if len(src) > 0 {
		pred.Mnemonic = src[len(src)-1]
	}

	if opts.Details {
		words := strings.Fields(vocab.FormatTokens(decoded[0]))
		if len(words) >= 2 {
			pred.Label = words[0] + " " + words[1]
		} else {
			log.Debug().Msgf("decoded output %q too short for a label, skipping", words)
		}
	}
	return pred, nil
}

// EvalDataset decodes a sampled prefix of the dataset and aggregates the
// predictions into two mappings keyed by mnemonic identifier: predicted
// labels and probability scores. When the same mnemonic recurs, the later
// result overwrites the earlier one in both mappings.
func EvalDataset(ctx context.Context, ds *dataset.Dataset, v *vocab.Vocab, model seq2seq.Model, p params.Params) (map[string]string, map[string]float64, error) {
	labels := make(map[string]string)
	scores := make(map[string]float64)

	n := int(p.TestSampleRatio * float64(len(ds.Pairs)))
	if n <= 0 {
		return labels, scores, nil
	}

	gen := ds.Generator(1, v, p.Pointer)
	model.Eval()
	opts := Options{
		PackSeq:    p.PackSeq,
		BeamSize:   p.BeamSize,
		MinOutLen:  p.MinOutLen,
		MaxOutLen:  p.MaxOutLen,
		LenInWords: p.OutLenInWords,
		BestOnly:   p.BestOnly,
		Details:    true,
	}
	for i := 0; i < n; i++ {
		batch, err := gen.Next()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to draw example %d of %d: %w", i+1, n, err)
		}
		pred, err := EvalBatch(ctx, batch, model, v, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to evaluate example %d of %d: %w", i+1, n, err)
		}
		if pred.Label == "" {
			continue
		}
		labels[pred.Mnemonic] = pred.Label
		scores[pred.Mnemonic] = pred.Score
	}
	log.Debug().Msgf("evaluated %d examples, labeled %d mnemonics", n, len(labels))
	return labels, scores, nil
}
