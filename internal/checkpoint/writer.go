package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
)

// Options configures how a checkpoint is written.
type Options struct {
	DType    DType             // Storage type (default: F64)
	Metadata map[string]string // Free-form metadata stored in the header
}

// Write encodes arrays to w.
//
// Tensors are written in alphabetical order by name.
func Write(w io.Writer, arrays map[string]*array.Array, opts Options) error {
	if opts.DType == "" {
		opts.DType = F64
	}
	if opts.DType.Size() == 0 {
		return errors.Wrapf(ErrInvalidFormat, "unsupported dtype %q", opts.DType)
	}
	if len(arrays) > MaxTensorCount {
		return errors.Wrapf(ErrInvalidFormat, "%d tensors exceed max %d", len(arrays), MaxTensorCount)
	}

	names := make([]string, 0, len(arrays))
	for name := range arrays {
		if err := validateName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer
	for _, name := range names {
		a := arrays[name]
		start := int64(data.Len())
		encode(&data, a.Data(), opts.DType)

		shape := make([]int64, a.Rank())
		for i, d := range a.Shape() {
			shape[i] = int64(d)
		}
		header[name] = tensorHeader{
			DType:       opts.DType,
			Shape:       shape,
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	metadata := make(map[string]string, len(opts.Metadata)+1)
	for k, v := range opts.Metadata {
		metadata[k] = v
	}
	sum := sha256.Sum256(data.Bytes())
	metadata[checksumKey] = hex.EncodeToString(sum[:])
	header[metadataKey] = metadata

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "write header size")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "write header")
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return errors.Wrap(err, "write tensor data")
	}
	return nil
}

func encode(buf *bytes.Buffer, data []float64, dt DType) {
	var scratch [8]byte
	for _, v := range data {
		switch dt {
		case F64:
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
		case F32:
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(v)))
		case F16:
			binary.LittleEndian.PutUint16(scratch[:], float16.Fromfloat32(float32(v)).Bits())
		}
		buf.Write(scratch[:dt.Size()])
	}
}

// Values returns the values of named tensors.
func Values(params map[string]*autodiff.Tensor) map[string]*array.Array {
	out := make(map[string]*array.Array, len(params))
	for name, p := range params {
		out[name] = p.Value()
	}
	return out
}

// Save writes the values of params to a file at path.
func Save(path string, params map[string]*autodiff.Tensor, opts Options) error {
	return SaveArrays(path, Values(params), opts)
}

// SaveArrays writes arrays to a file at path.
func SaveArrays(path string, arrays map[string]*array.Array, opts Options) (err error) {
	//nolint:gosec // G304: path comes from the caller, which is expected for checkpoints
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create checkpoint")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close checkpoint")
		}
	}()
	return Write(f, arrays, opts)
}
