// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vocab

import "strings"

// ExtendedWord resolves a token index to its surface string for the example
// at the given position within the batch. Base indices resolve through the
// vocabulary and never consult the dictionary; extended indices resolve
// through the dictionary, falling back to the unknown token when absent.
// It never fails.
func ExtendedWord(v *Vocab, oov *OOVDict, example, index int) string {
	if index < v.Len() {
		return v.Word(index)
	}
	if oov != nil {
		if w, ok := oov.Word(example, index); ok {
			return w
		}
	}
	return reserved[UNK]
}

// DecodeSequences converts per-example token index sequences to strings.
// Each decoded sequence is truncated at, but includes, the first
// end-of-sequence token. The input is example-major; callers holding a
// time-major grid convert it with TransposeGrid first.
func DecodeSequences(seqs [][]int, v *Vocab, oov *OOVDict) [][]string {
	decoded := make([][]string, len(seqs))
	for i, seq := range seqs {
		doc := make([]string, 0, len(seq))
		for _, idx := range seq {
			doc = append(doc, ExtendedWord(v, oov, i, idx))
			if idx == EOS {
				break
			}
		}
		decoded[i] = doc
	}
	return decoded
}

// TransposeGrid converts a time-major grid of token indices (one row per
// step) into the example-major form DecodeSequences expects. Rows must have
// equal length.
func TransposeGrid(grid [][]int) [][]int {
	if len(grid) == 0 {
		return nil
	}
	out := make([][]int, len(grid[0]))
	for i := range out {
		out[i] = make([]int, len(grid))
		for t := range grid {
			out[i][t] = grid[t][i]
		}
	}
	return out
}

// FormatTokens joins tokens into a single display string, dropping the
// reserved sentinel surface forms.
func FormatTokens(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isReserved(tok) {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

func isReserved(tok string) bool {
	for _, r := range reserved {
		if tok == r {
			return true
		}
	}
	return false
}
