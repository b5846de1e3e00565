// Package checkpoint persists named arrays in the SafeTensors layout.
//
// File layout:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw little-endian bytes]
//
// The header maps each tensor name to its dtype, shape and byte range in
// the data section, plus an optional "__metadata__" string map. Tensors are
// written in alphabetical order. The writer records a SHA-256 of the data
// section under the "sha256" metadata key, which the reader verifies when
// present.
package checkpoint

import (
	"strings"

	"github.com/pkg/errors"
)

// DType selects the on-disk element type. Values are always float64 in
// memory; F32 and F16 trade precision for size.
type DType string

// Supported storage types.
const (
	F64 DType = "F64"
	F32 DType = "F32"
	F16 DType = "F16"
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case F64:
		return 8
	case F32:
		return 4
	case F16:
		return 2
	default:
		return 0
	}
}

// Validation limits for untrusted files.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

const (
	metadataKey = "__metadata__"
	checksumKey = "sha256"
)

// Common errors.
var (
	ErrInvalidFormat    = errors.New("invalid checkpoint format")
	ErrMissingTensor    = errors.New("tensor not found in checkpoint")
	ErrChecksumMismatch = errors.New("checksum mismatch: file may be corrupted")
)

// tensorHeader is one entry of the JSON header.
type tensorHeader struct {
	DType       DType    `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// validateName rejects names that are empty, oversized, or could be used
// for path traversal by tools that unpack checkpoints.
func validateName(name string) error {
	switch {
	case name == "" || name == metadataKey:
		return errors.Wrapf(ErrInvalidFormat, "invalid tensor name %q", name)
	case len(name) > MaxTensorNameLen:
		return errors.Wrapf(ErrInvalidFormat, "tensor name length %d > max %d", len(name), MaxTensorNameLen)
	case strings.Contains(name, ".."), strings.ContainsAny(name, "/\\\x00"):
		return errors.Wrapf(ErrInvalidFormat, "tensor name %q contains a path separator, '..' or NUL", name)
	}
	return nil
}

// validateOffsets checks that every tensor lies inside the data section and
// that regions do not overlap. entries must be sorted by start offset.
func validateOffsets(names []string, entries []tensorHeader, dataSize int64) error {
	for i, e := range entries {
		start, end := e.DataOffsets[0], e.DataOffsets[1]
		if start < 0 || end < start {
			return errors.Wrapf(ErrInvalidFormat, "tensor %q: bad offsets [%d, %d)", names[i], start, end)
		}
		if end > dataSize {
			return errors.Wrapf(ErrInvalidFormat, "tensor %q: offset %d > data size %d", names[i], end, dataSize)
		}
		if i > 0 && start < entries[i-1].DataOffsets[1] {
			return errors.Wrapf(ErrInvalidFormat, "tensors %q and %q overlap", names[i-1], names[i])
		}
	}
	return nil
}
