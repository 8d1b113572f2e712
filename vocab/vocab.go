// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vocab

import (
	"unicode"

	"github.com/nlpodyssey/spago/mat"
)

// Reserved sentinel indices. They occupy the lowest positions of every
// vocabulary and are stable for the lifetime of a model.
const (
	PAD = 0
	SOS = 1
	EOS = 2
	UNK = 3
)

var reserved = [...]string{"<PAD>", "<SOS>", "<EOS>", "<UNK>"}

// Vocab is an ordered, index-addressable set of tokens. Indices in
// 0..Len()-1 are valid base indices; anything beyond is only meaningful
// within a specific example's extended vocabulary (see OOVDict).
type Vocab struct {
	words      []string
	index      map[string]int
	embeddings []mat.Matrix
}

// New returns a vocabulary pre-loaded with the reserved sentinels.
func New() *Vocab {
	v := &Vocab{
		words: make([]string, 0, len(reserved)),
		index: make(map[string]int, len(reserved)),
	}
	for _, w := range reserved {
		v.Add(w)
	}
	return v
}

// Add inserts a word and returns its index. Adding an existing word is a
// no-op that returns the index already assigned.
func (v *Vocab) Add(word string) int {
	if i, ok := v.index[word]; ok {
		return i
	}
	i := len(v.words)
	v.words = append(v.words, word)
	v.index[word] = i
	return i
}

// Len returns the base vocabulary size, reserved sentinels included.
func (v *Vocab) Len() int {
	return len(v.words)
}

// Word returns the surface string at the given base index. Out-of-range
// indices resolve to the unknown token rather than failing; extended
// indices belong to ExtendedWord.
func (v *Vocab) Word(i int) string {
	if i < 0 || i >= len(v.words) {
		return reserved[UNK]
	}
	return v.words[i]
}

// Index returns the base index of a word, if present.
func (v *Vocab) Index(word string) (int, bool) {
	i, ok := v.index[word]
	return i, ok
}

// IsWord reports whether the token at the given index counts as a word-like
// unit for word-counted output length bounds. Reserved sentinels and
// punctuation-only tokens do not.
func (v *Vocab) IsWord(i int) bool {
	if i < len(reserved) {
		return false
	}
	for _, r := range v.Word(i) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// SetEmbedding attaches a pre-trained vector to the word at the given index.
func (v *Vocab) SetEmbedding(i int, vec mat.Matrix) {
	if i < 0 || i >= len(v.words) {
		return
	}
	if v.embeddings == nil {
		v.embeddings = make([]mat.Matrix, len(v.words))
	}
	v.embeddings[i] = vec
}

// Embedding returns the pre-trained vector of the word at the given index,
// or nil when none was loaded.
func (v *Vocab) Embedding(i int) mat.Matrix {
	if v.embeddings == nil || i < 0 || i >= len(v.embeddings) {
		return nil
	}
	return v.embeddings[i]
}
