// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package curvelabel predicts textual labels for well-log (LAS) mnemonics
// by beam-decoding a trained pointer-generator sequence-to-sequence model.
package curvelabel

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/welllogml/curvelabel/dataset"
	"github.com/welllogml/curvelabel/params"
	"github.com/welllogml/curvelabel/predictor"
	"github.com/welllogml/curvelabel/seq2seq"
	"github.com/welllogml/curvelabel/vocab"
)

// CurveLabel is the core struct of the library.
type CurveLabel struct {
	Model  seq2seq.Model
	Vocab  *vocab.Vocab
	Params params.Params
}

// ModelBuilder constructs the trained model from the vocabulary, the loaded
// weight tensors (nil when no state dict path is configured) and the
// parameters. It is the seam keeping the network architecture outside this
// library.
type ModelBuilder func(v *vocab.Vocab, weights seq2seq.StateDict, p params.Params) (seq2seq.Model, error)

// Load builds the vocabulary from the configured training data, loads the
// persisted model weights and hands both to the builder.
func Load(p params.Params, build ModelBuilder) (*CurveLabel, error) {
	train, err := dataset.Load(p.DataPath, dataset.Options{
		MaxSrcLen:   p.MaxSrcLen,
		MaxTgtLen:   p.MaxTgtLen,
		TruncateSrc: p.TruncateSrc,
		TruncateTgt: p.TruncateTgt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	v, err := train.BuildVocab(p.VocabSize, p.EmbedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to build vocabulary: %w", err)
	}

	var weights seq2seq.StateDict
	if p.StateDictPath != "" {
		weights, err = seq2seq.LoadStateDict(p.StateDictPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("unable to find the model weights file %q; ensure the model has been trained and exported before trying again", p.StateDictPath)
			}
			return nil, err
		}
	} else {
		log.Debug().Msg("no state dict path configured, skipping weight loading")
	}

	model, err := build(v, weights, p)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	return &CurveLabel{Model: model, Vocab: v, Params: p}, nil
}

// Predict decodes the examples of the given test pairs file and returns two
// mappings keyed by mnemonic identifier: predicted labels and probability
// scores.
func (cl *CurveLabel) Predict(ctx context.Context, testPath string) (map[string]string, map[string]float64, error) {
	test, err := dataset.Load(testPath, dataset.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load test data: %w", err)
	}
	return predictor.EvalDataset(ctx, test, cl.Vocab, cl.Model, cl.Params)
}
