// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset loads source/target token pairs and turns them into
// single-example batches for the prediction pipeline.
package dataset

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/welllogml/curvelabel/vocab"
)

// Example is one source/target pair of whitespace-separated tokens. The
// target is empty for unlabeled test data.
type Example struct {
	Src []string
	Tgt []string
}

// Options controls how examples are tokenized while loading.
type Options struct {
	// MaxSrcLen bounds the source length in tokens. Zero means unbounded.
	MaxSrcLen int
	// MaxTgtLen bounds the target length in tokens. Zero means unbounded.
	MaxTgtLen int
	// TruncateSrc truncates over-long sources instead of skipping the
	// example.
	TruncateSrc bool
	// TruncateTgt truncates over-long targets instead of skipping the
	// example.
	TruncateTgt bool
}

// Dataset is an ordered collection of examples.
type Dataset struct {
	Pairs []Example
}

// Load reads a line-oriented pairs file: one example per line, the source
// text optionally followed by a tab and the target text. Files ending in
// ".gz" are decompressed on the fly.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip dataset %q: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	ds := &Dataset{}
	skipped := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		srcText, tgtText, _ := strings.Cut(line, "\t")
		src := strings.Fields(srcText)
		tgt := strings.Fields(tgtText)

		if opts.MaxSrcLen > 0 && len(src) > opts.MaxSrcLen {
			if !opts.TruncateSrc {
				skipped++
				continue
			}
			src = src[:opts.MaxSrcLen]
		}
		if opts.MaxTgtLen > 0 && len(tgt) > opts.MaxTgtLen {
			if !opts.TruncateTgt {
				skipped++
				continue
			}
			tgt = tgt[:opts.MaxTgtLen]
		}
		ds.Pairs = append(ds.Pairs, Example{Src: src, Tgt: tgt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset %q: %w", path, err)
	}
	log.Debug().Msgf("loaded %d examples from %q (%d skipped)", len(ds.Pairs), path, skipped)
	return ds, nil
}

// BuildVocab builds a frequency-ranked vocabulary over the dataset's source
// and target tokens, capped at size (reserved sentinels included). When
// embedFile is non-empty, pre-trained vectors are attached to the words
// found in it.
func (d *Dataset) BuildVocab(size int, embedFile string) (*vocab.Vocab, error) {
	counts := make(map[string]int)
	for _, ex := range d.Pairs {
		for _, tok := range ex.Src {
			counts[tok]++
		}
		for _, tok := range ex.Tgt {
			counts[tok]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	// Rank by frequency; ties break lexicographically so indices are
	// reproducible across runs.
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	v := vocab.New()
	for _, w := range words {
		if size > 0 && v.Len() >= size {
			break
		}
		v.Add(w)
	}
	log.Debug().Msgf("built vocabulary of %d tokens from %d distinct words", v.Len(), len(words))

	if embedFile != "" {
		if err := loadEmbeddings(v, embedFile); err != nil {
			return nil, err
		}
	}
	return v, nil
}
