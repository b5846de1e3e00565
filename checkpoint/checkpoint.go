// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and restores tensor values in the SafeTensors
// layout used across the HuggingFace ecosystem.
//
// Example:
//
//	params := map[string]*autodiff.Tensor{"w": w, "b": b}
//	err := checkpoint.Save("model.safetensors", params, checkpoint.Options{
//	    DType:    checkpoint.F32,
//	    Metadata: map[string]string{"epoch": "10"},
//	})
//
//	// Later, into freshly initialized parameters:
//	err = checkpoint.LoadInto("model.safetensors", params)
package checkpoint

import (
	"io"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/checkpoint"
)

// DType selects the on-disk element type.
type DType = checkpoint.DType

// Storage types.
const (
	F64 = checkpoint.F64
	F32 = checkpoint.F32
	F16 = checkpoint.F16
)

// Options configures how a checkpoint is written.
type Options = checkpoint.Options

// File is a decoded checkpoint.
type File = checkpoint.File

// Errors
var (
	ErrInvalidFormat    = checkpoint.ErrInvalidFormat
	ErrMissingTensor    = checkpoint.ErrMissingTensor
	ErrChecksumMismatch = checkpoint.ErrChecksumMismatch
)

// Save writes the values of params to path.
func Save(path string, params map[string]*autodiff.Tensor, opts Options) error {
	return checkpoint.Save(path, params, opts)
}

// SaveArrays writes arrays, such as an optimizer StateDict, to path.
func SaveArrays(path string, arrays map[string]*array.Array, opts Options) error {
	return checkpoint.SaveArrays(path, arrays, opts)
}

// Write encodes arrays to w.
func Write(w io.Writer, arrays map[string]*array.Array, opts Options) error {
	return checkpoint.Write(w, arrays, opts)
}

// Read decodes a checkpoint from r.
func Read(r io.Reader) (*File, error) {
	return checkpoint.Read(r)
}

// Load reads a checkpoint file.
func Load(path string) (*File, error) {
	return checkpoint.Load(path)
}

// LoadInto copies stored values into params in place.
func LoadInto(path string, params map[string]*autodiff.Tensor) error {
	return checkpoint.LoadInto(path, params)
}
