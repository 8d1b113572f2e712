// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vocab

// OOVDict records the out-of-vocabulary words of one batch, keyed by
// (example index within the batch, extended vocabulary index). It is built
// once while encoding a batch and is read-only during decoding; it must
// never be shared across batches.
type OOVDict struct {
	baseSize   int
	word2index map[oovWordKey]int
	index2word map[OOVKey]string
	numOOV     map[int]int
}

// OOVKey addresses one out-of-vocabulary word of one example.
type OOVKey struct {
	Example int
	Index   int
}

type oovWordKey struct {
	example int
	word    string
}

// NewOOVDict returns an empty dictionary extending a base vocabulary of the
// given size.
func NewOOVDict(baseSize int) *OOVDict {
	return &OOVDict{
		baseSize:   baseSize,
		word2index: make(map[oovWordKey]int),
		index2word: make(map[OOVKey]string),
		numOOV:     make(map[int]int),
	}
}

// Put assigns an extended index to an out-of-vocabulary word of the given
// example, reusing the index if the word was seen before in that example.
func (d *OOVDict) Put(example int, word string) int {
	wk := oovWordKey{example: example, word: word}
	if i, ok := d.word2index[wk]; ok {
		return i
	}
	i := d.baseSize + d.numOOV[example]
	d.word2index[wk] = i
	d.index2word[OOVKey{Example: example, Index: i}] = word
	d.numOOV[example]++
	return i
}

// Word looks up the surface word recorded for an extended index of the given
// example.
func (d *OOVDict) Word(example, index int) (string, bool) {
	w, ok := d.index2word[OOVKey{Example: example, Index: index}]
	return w, ok
}

// ExtVocabSize returns the extended vocabulary size of the batch: the base
// size plus the largest per-example out-of-vocabulary count.
func (d *OOVDict) ExtVocabSize() int {
	max := 0
	for _, n := range d.numOOV {
		if n > max {
			max = n
		}
	}
	return d.baseSize + max
}
