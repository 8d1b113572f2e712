// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nlpodyssey/spago/mat"
	"github.com/rs/zerolog/log"
	"github.com/welllogml/curvelabel/vocab"
)

// loadEmbeddings reads GloVe-style text vectors ("word v1 v2 ...") and
// attaches them to the vocabulary words present in the file. Words outside
// the vocabulary are ignored.
func loadEmbeddings(v *vocab.Vocab, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open embeddings file %q: %w", path, err)
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		idx, ok := v.Index(fields[0])
		if !ok {
			continue
		}
		vec := make([]float32, len(fields)-1)
		for i, field := range fields[1:] {
			val, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return fmt.Errorf("malformed embedding for word %q: %w", fields[0], err)
			}
			vec[i] = float32(val)
		}
		v.SetEmbedding(idx, mat.NewVecDense[float32](vec))
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read embeddings file %q: %w", path, err)
	}
	log.Debug().Msgf("loaded %d pre-trained vectors from %q", loaded, path)
	return nil
}
