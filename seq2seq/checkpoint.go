// Copyright 2024 WellLogML Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq2seq

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/nlpodyssey/spago/mat"
	"github.com/rs/zerolog/log"
)

// StateDict holds the named weight tensors of a persisted model checkpoint.
type StateDict map[string]mat.Matrix

// LoadStateDict reads a PyTorch state dict from the given path into named
// matrices, ready for a model builder to consume.
func LoadStateDict(path string) (StateDict, error) {
	torchModel, err := pytorch.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load torch checkpoint %q: %w", path, err)
	}

	od, ok := torchModel.(*types.OrderedDict)
	if !ok {
		return nil, fmt.Errorf("expected an ordered dict of parameters, actual %T", torchModel)
	}

	sd := make(StateDict, od.Len())
	for k, item := range od.Map {
		name, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("wrong param name type: expected string, actual %T", k)
		}
		tensor, ok := item.Value.(*pytorch.Tensor)
		if !ok {
			return nil, fmt.Errorf("wrong value type for param %q: expected tensor, actual %T", name, item.Value)
		}
		m, err := tensorToMatrix(tensor)
		if err != nil {
			return nil, fmt.Errorf("failed to convert param %q: %w", name, err)
		}
		sd[name] = m
	}
	log.Debug().Msgf("loaded %d weight tensors from %q", len(sd), path)
	return sd, nil
}

func tensorToMatrix(t *pytorch.Tensor) (mat.Matrix, error) {
	if len(t.Size) != 1 && len(t.Size) != 2 {
		return nil, fmt.Errorf("expected 1 or 2 dimensions, actual %d", len(t.Size))
	}
	data, err := tensorData(t)
	if err != nil {
		return nil, err
	}
	if len(t.Size) == 1 {
		return mat.NewVecDense[float32](data), nil
	}
	return mat.NewDense[float32](t.Size[0], t.Size[1], data), nil
}

func tensorData(t *pytorch.Tensor) ([]float32, error) {
	size := tensorDataSize(t)
	switch st := t.Source.(type) {
	case *pytorch.FloatStorage:
		return st.Data[t.StorageOffset : t.StorageOffset+size], nil
	case *pytorch.HalfStorage:
		return st.Data[t.StorageOffset : t.StorageOffset+size], nil
	case *pytorch.BFloat16Storage:
		return st.Data[t.StorageOffset : t.StorageOffset+size], nil
	case *pytorch.DoubleStorage:
		data := make([]float32, size)
		for i, v := range st.Data[t.StorageOffset : t.StorageOffset+size] {
			data[i] = float32(v)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %T", t.Source)
	}
}

func tensorDataSize(t *pytorch.Tensor) int {
	size := t.Size[0]
	for _, v := range t.Size[1:] {
		size *= v
	}
	return size
}
