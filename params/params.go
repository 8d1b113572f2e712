// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package params carries the configuration surface of the prediction
// pipeline.
package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params is the full configuration of the prediction pipeline.
type Params struct {
	// DataPath is the training pairs file the vocabulary is built from.
	DataPath string `yaml:"data_path"`
	// EmbedFile optionally points at pre-trained text embeddings.
	EmbedFile string `yaml:"embed_file"`
	// StateDictPath is the persisted model weights artifact. Empty skips
	// weight loading.
	StateDictPath string `yaml:"state_dict_path"`

	// VocabSize caps the vocabulary, reserved sentinels included.
	VocabSize int `yaml:"vocab_size"`
	// MaxSrcLen and MaxTgtLen bound example lengths in tokens.
	MaxSrcLen int `yaml:"max_src_len"`
	MaxTgtLen int `yaml:"max_tgt_len"`
	// TruncateSrc and TruncateTgt truncate over-long examples instead of
	// skipping them.
	TruncateSrc bool `yaml:"truncate_src"`
	TruncateTgt bool `yaml:"truncate_tgt"`

	// BeamSize is the beam width.
	BeamSize int `yaml:"beam_size"`
	// MinOutLen is the required minimum output length.
	MinOutLen int `yaml:"min_out_len"`
	// MaxOutLen is the required maximum output length; zero means the
	// model's own bound.
	MaxOutLen int `yaml:"max_out_len"`
	// OutLenInWords counts output length in words instead of tokens.
	OutLenInWords bool `yaml:"out_len_in_words"`
	// PackSeq passes explicit input lengths to the model.
	PackSeq bool `yaml:"pack_seq"`
	// Pointer enables the extended (copy-mechanism) vocabulary.
	Pointer bool `yaml:"pointer"`
	// BestOnly decodes only the top-ranked hypothesis per example.
	BestOnly bool `yaml:"best_only"`
	// TestSampleRatio is the fraction of the dataset to evaluate.
	TestSampleRatio float64 `yaml:"test_sample_ratio"`
}

// Default returns the parameters the pipeline was tuned with.
func Default() Params {
	return Params{
		VocabSize:       30000,
		MaxSrcLen:       80,
		MaxTgtLen:       10,
		TruncateSrc:     true,
		TruncateTgt:     true,
		BeamSize:        4,
		MinOutLen:       1,
		OutLenInWords:   true,
		PackSeq:         true,
		Pointer:         true,
		BestOnly:        true,
		TestSampleRatio: 1.0,
	}
}

// LoadFile reads a YAML parameters file over the defaults.
func LoadFile(path string) (Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse params file %q: %w", path, err)
	}
	return p, nil
}
