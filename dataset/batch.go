// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"io"

	"github.com/welllogml/curvelabel/vocab"
)

// Batch is one or more encoded examples together with the out-of-vocabulary
// dictionary and extended vocabulary size recorded while encoding them. The
// dictionary is scoped to this batch only.
type Batch struct {
	Examples     []Example
	Input        [][]int
	InputLengths []int
	OOV          *vocab.OOVDict
	ExtVocabSize int
}

// Generator is a restartable, finite lazy sequence of batches drawn from a
// dataset in order. It is not safe for concurrent use.
type Generator struct {
	ds         *Dataset
	v          *vocab.Vocab
	batchSize  int
	usePointer bool
	next       int
}

// Generator returns a generator over the dataset. With usePointer, source
// words outside the base vocabulary get per-batch extended indices a copy
// mechanism can point at; otherwise they map to the unknown token.
func (d *Dataset) Generator(batchSize int, v *vocab.Vocab, usePointer bool) *Generator {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Generator{ds: d, v: v, batchSize: batchSize, usePointer: usePointer}
}

// Next returns the next batch, or io.EOF once the dataset is exhausted.
func (g *Generator) Next() (*Batch, error) {
	if g.next >= len(g.ds.Pairs) {
		return nil, io.EOF
	}
	end := g.next + g.batchSize
	if end > len(g.ds.Pairs) {
		end = len(g.ds.Pairs)
	}
	examples := g.ds.Pairs[g.next:end]
	g.next = end

	batch := &Batch{
		Examples:     examples,
		Input:        make([][]int, len(examples)),
		InputLengths: make([]int, len(examples)),
		ExtVocabSize: g.v.Len(),
	}
	if g.usePointer {
		batch.OOV = vocab.NewOOVDict(g.v.Len())
	}
	for i, ex := range examples {
		indices := make([]int, len(ex.Src))
		for t, tok := range ex.Src {
			if idx, ok := g.v.Index(tok); ok {
				indices[t] = idx
			} else if g.usePointer {
				indices[t] = batch.OOV.Put(i, tok)
			} else {
				indices[t] = vocab.UNK
			}
		}
		batch.Input[i] = indices
		batch.InputLengths[i] = len(indices)
	}
	if batch.OOV != nil {
		batch.ExtVocabSize = batch.OOV.ExtVocabSize()
	}
	return batch, nil
}

// Reset restarts the generator from the first example.
func (g *Generator) Reset() {
	g.next = 0
}
