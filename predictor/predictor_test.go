// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package predictor

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welllogml/curvelabel/dataset"
	"github.com/welllogml/curvelabel/params"
	"github.com/welllogml/curvelabel/seq2seq"
	"github.com/welllogml/curvelabel/vocab"
)

// fakeModel returns canned hypotheses, one scripted set per call.
type fakeModel struct {
	script      [][]seq2seq.Hypothesis
	calls       int
	evalCalls   int
	lastLengths []int
	lastExtSize int
}

func (m *fakeModel) BeamSearch(_ context.Context, _ []int, lengths []int, extVocabSize int, _ seq2seq.SearchOptions) ([]seq2seq.Hypothesis, error) {
	m.lastLengths = lengths
	m.lastExtSize = extVocabSize
	hyps := m.script[m.calls%len(m.script)]
	m.calls++
	return hyps, nil
}

func (m *fakeModel) Eval() { m.evalCalls++ }

func testVocab(t *testing.T, words ...string) *vocab.Vocab {
	t.Helper()
	v := vocab.New()
	for _, w := range words {
		v.Add(w)
	}
	return v
}

func singleBatch(t *testing.T, v *vocab.Vocab, src string) *dataset.Batch {
	t.Helper()
	ds := &dataset.Dataset{Pairs: []dataset.Example{{Src: strings.Fields(src)}}}
	batch, err := ds.Generator(1, v, true).Next()
	require.NoError(t, err)
	return batch
}

func hyp(logProb float64, tokens ...int) seq2seq.Hypothesis {
	return seq2seq.Hypothesis{Tokens: tokens, LogProb: logProb}
}

func TestEvalBatchRejectsMultiExampleBatches(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT")
	ds := &dataset.Dataset{Pairs: []dataset.Example{
		{Src: []string{"DEPTH"}},
		{Src: []string{"FT"}},
	}}
	batch, err := ds.Generator(2, v, true).Next()
	require.NoError(t, err)

	_, err = EvalBatch(context.Background(), batch, &fakeModel{}, v, Options{})
	assert.ErrorIs(t, err, ErrInvalidBatchSize)
}

func TestEvalBatchEndToEnd(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GAMMA", "RAY")
	gamma, _ := v.Index("GAMMA")
	ray, _ := v.Index("RAY")
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{
		hyp(-0.03, gamma, ray, vocab.EOS), // avg log-prob -0.01
	}}}

	batch := singleBatch(t, v, "DEPTH FT")
	pred, err := EvalBatch(context.Background(), batch, model, v, Options{BestOnly: true, Details: true})
	require.NoError(t, err)
	assert.Equal(t, "GAMMA RAY", pred.Label)
	assert.Equal(t, "FT", pred.Mnemonic)
	assert.InDelta(t, -2.0, pred.Score, 1e-9)
	assert.Empty(t, pred.Candidates)
}

func TestEvalBatchResolvesCopiedWords(t *testing.T) {
	v := testVocab(t, "GAMMA", "FT")
	gamma, _ := v.Index("GAMMA")
	// "SPECTRAL" is only present in the example's extended vocabulary.
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{
		hyp(-0.3, v.Len(), gamma, vocab.EOS),
	}}}

	batch := singleBatch(t, v, "SPECTRAL GAMMA FT")
	require.NotNil(t, batch.OOV)

	pred, err := EvalBatch(context.Background(), batch, model, v, Options{BestOnly: true, Details: true})
	require.NoError(t, err)
	assert.Equal(t, "SPECTRAL GAMMA", pred.Label)
	assert.Equal(t, v.Len()+1, model.lastExtSize)
}

func TestEvalBatchDegenerateScore(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT")

	perfect := &fakeModel{script: [][]seq2seq.Hypothesis{{hyp(0, vocab.EOS)}}}
	_, err := EvalBatch(context.Background(), singleBatch(t, v, "DEPTH FT"), perfect, v, Options{BestOnly: true})
	assert.ErrorIs(t, err, ErrDegenerateScore)

	empty := &fakeModel{script: [][]seq2seq.Hypothesis{{hyp(-1)}}}
	_, err = EvalBatch(context.Background(), singleBatch(t, v, "DEPTH FT"), empty, v, Options{BestOnly: true})
	assert.ErrorIs(t, err, ErrDegenerateScore)
}

func TestEvalBatchShortOutputHasNoLabel(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GAMMA")
	gamma, _ := v.Index("GAMMA")
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{hyp(-0.1, gamma, vocab.EOS)}}}

	pred, err := EvalBatch(context.Background(), singleBatch(t, v, "DEPTH FT"), model, v, Options{BestOnly: true, Details: true})
	require.NoError(t, err)
	assert.Empty(t, pred.Label)
	assert.Equal(t, "FT", pred.Mnemonic)
}

func TestEvalBatchAllHypotheses(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GAMMA", "RAY")
	gamma, _ := v.Index("GAMMA")
	ray, _ := v.Index("RAY")
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{
		hyp(-0.03, gamma, ray, vocab.EOS),
		hyp(-0.9, ray, vocab.EOS),
	}}}

	pred, err := EvalBatch(context.Background(), singleBatch(t, v, "DEPTH FT"), model, v, Options{Details: true})
	require.NoError(t, err)
	assert.Equal(t, "GAMMA RAY", pred.Label)
	assert.Equal(t, []string{"RAY"}, pred.Candidates)
}

func TestEvalBatchPackSeqControlsLengths(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GAMMA", "RAY")
	gamma, _ := v.Index("GAMMA")
	ray, _ := v.Index("RAY")
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{hyp(-0.03, gamma, ray, vocab.EOS)}}}

	_, err := EvalBatch(context.Background(), singleBatch(t, v, "DEPTH FT"), model, v, Options{PackSeq: true})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, model.lastLengths)

	_, err = EvalBatch(context.Background(), singleBatch(t, v, "DEPTH FT"), model, v, Options{})
	require.NoError(t, err)
	assert.Nil(t, model.lastLengths)
}

func TestEvalDatasetZeroSampleRatio(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT")
	ds := &dataset.Dataset{Pairs: []dataset.Example{{Src: []string{"DEPTH", "FT"}}}}
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{hyp(-0.1, vocab.EOS)}}}

	p := params.Default()
	p.TestSampleRatio = 0
	labels, scores, err := EvalDataset(context.Background(), ds, v, model, p)
	require.NoError(t, err)
	assert.Empty(t, labels)
	assert.Empty(t, scores)
	assert.Zero(t, model.calls)
}

func TestEvalDatasetAggregatesByMnemonic(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GR", "GAMMA", "RAY", "BULK", "DENSITY")
	gamma, _ := v.Index("GAMMA")
	ray, _ := v.Index("RAY")
	bulk, _ := v.Index("BULK")
	density, _ := v.Index("DENSITY")

	ds := &dataset.Dataset{Pairs: []dataset.Example{
		{Src: []string{"DEPTH", "FT"}},
		{Src: []string{"GAMMA", "GR"}},
	}}
	model := &fakeModel{script: [][]seq2seq.Hypothesis{
		{hyp(-0.03, gamma, ray, vocab.EOS)},
		{hyp(-0.3, bulk, density, vocab.EOS)},
	}}

	p := params.Default()
	labels, scores, err := EvalDataset(context.Background(), ds, v, model, p)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FT": "GAMMA RAY", "GR": "BULK DENSITY"}, labels)
	assert.Len(t, scores, 2)
	assert.Equal(t, 1, model.evalCalls)
	assert.Equal(t, 2, model.calls)
}

func TestEvalDatasetLastWriteWins(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GAMMA", "RAY", "BULK", "DENSITY")
	gamma, _ := v.Index("GAMMA")
	ray, _ := v.Index("RAY")
	bulk, _ := v.Index("BULK")
	density, _ := v.Index("DENSITY")

	// Both examples carry the same mnemonic identifier.
	ds := &dataset.Dataset{Pairs: []dataset.Example{
		{Src: []string{"DEPTH", "FT"}},
		{Src: []string{"GAMMA", "FT"}},
	}}
	model := &fakeModel{script: [][]seq2seq.Hypothesis{
		{hyp(-0.03, gamma, ray, vocab.EOS)},
		{hyp(-0.3, bulk, density, vocab.EOS)},
	}}

	labels, scores, err := EvalDataset(context.Background(), ds, v, model, params.Default())
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, "BULK DENSITY", labels["FT"])
	assert.InDelta(t, labelScore(-0.1), scores["FT"], 1e-9)
}

func labelScore(avgLogProb float64) float64 {
	// log10 of the negated average log-probability.
	return math.Log10(-avgLogProb)
}

func TestEvalDatasetSamplesPrefix(t *testing.T) {
	v := testVocab(t, "DEPTH", "FT", "GAMMA", "RAY")
	gamma, _ := v.Index("GAMMA")
	ray, _ := v.Index("RAY")
	ds := &dataset.Dataset{Pairs: []dataset.Example{
		{Src: []string{"DEPTH", "FT"}},
		{Src: []string{"GAMMA", "GR"}},
	}}
	model := &fakeModel{script: [][]seq2seq.Hypothesis{{hyp(-0.03, gamma, ray, vocab.EOS)}}}

	p := params.Default()
	p.TestSampleRatio = 0.5
	labels, _, err := EvalDataset(context.Background(), ds, v, model, p)
	require.NoError(t, err)
	assert.Equal(t, 1, model.calls)
	assert.Len(t, labels, 1)
}
