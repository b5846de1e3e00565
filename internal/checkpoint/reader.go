package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"math/bits"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
)

// File is a decoded checkpoint.
type File struct {
	Tensors  map[string]*array.Array
	DTypes   map[string]DType // Storage type of each tensor
	Metadata map[string]string
}

// Names returns the tensor names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Tensors))
	for name := range f.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read decodes a checkpoint from r.
func Read(r io.Reader) (*File, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read checkpoint")
	}
	return decode(buf)
}

// decode parses a complete checkpoint image. The returned arrays never alias buf.
func decode(buf []byte) (*File, error) {
	if len(buf) < 8 {
		return nil, errors.Wrapf(ErrInvalidFormat, "%d bytes is too short for a header size", len(buf))
	}
	headerSize := binary.LittleEndian.Uint64(buf[:8])
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrInvalidFormat, "header size %d exceeds max %d", headerSize, MaxHeaderSize)
	}
	if headerSize > uint64(len(buf)-8) {
		return nil, errors.Wrapf(ErrInvalidFormat, "header size %d exceeds file size %d", headerSize, len(buf))
	}

	headerJSON := buf[8 : 8+headerSize]
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, errors.Wrapf(ErrInvalidFormat, "parse header: %v", err)
	}
	data := buf[8+headerSize:]

	f := &File{
		Tensors:  make(map[string]*array.Array, len(raw)),
		DTypes:   make(map[string]DType, len(raw)),
		Metadata: map[string]string{},
	}
	if m, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(m, &f.Metadata); err != nil {
			return nil, errors.Wrapf(ErrInvalidFormat, "parse metadata: %v", err)
		}
		delete(raw, metadataKey)
	}
	if len(raw) > MaxTensorCount {
		return nil, errors.Wrapf(ErrInvalidFormat, "%d tensors exceed max %d", len(raw), MaxTensorCount)
	}

	if want, ok := f.Metadata[checksumKey]; ok {
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != want {
			return nil, ErrChecksumMismatch
		}
	}

	names, entries, err := parseEntries(raw)
	if err != nil {
		return nil, err
	}
	if err := validateOffsets(names, entries, int64(len(data))); err != nil {
		return nil, err
	}

	for i, name := range names {
		a, err := decodeTensor(name, entries[i], data)
		if err != nil {
			return nil, err
		}
		f.Tensors[name] = a
		f.DTypes[name] = entries[i].DType
	}
	return f, nil
}

// parseEntries decodes tensor headers sorted by start offset.
func parseEntries(raw map[string]json.RawMessage) ([]string, []tensorHeader, error) {
	names := make([]string, 0, len(raw))
	byName := make(map[string]tensorHeader, len(raw))
	for name, msg := range raw {
		if err := validateName(name); err != nil {
			return nil, nil, err
		}
		var h tensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, nil, errors.Wrapf(ErrInvalidFormat, "tensor %q: %v", name, err)
		}
		names = append(names, name)
		byName[name] = h
	}
	sort.Slice(names, func(i, j int) bool {
		return byName[names[i]].DataOffsets[0] < byName[names[j]].DataOffsets[0]
	})

	entries := make([]tensorHeader, len(names))
	for i, name := range names {
		entries[i] = byName[name]
	}
	return names, entries, nil
}

func decodeTensor(name string, h tensorHeader, data []byte) (*array.Array, error) {
	size := h.DType.Size()
	if size == 0 {
		return nil, errors.Wrapf(ErrInvalidFormat, "tensor %q: unsupported dtype %q", name, h.DType)
	}

	shape := make(array.Shape, len(h.Shape))
	for i, d := range h.Shape {
		if d <= 0 || d > math.MaxInt32 {
			return nil, errors.Wrapf(ErrInvalidFormat, "tensor %q: bad dimension %d", name, d)
		}
		shape[i] = int(d)
	}

	if err := shape.Validate(); err != nil {
		return nil, errors.Wrapf(ErrInvalidFormat, "tensor %q: %v", name, err)
	}

	chunk := data[h.DataOffsets[0]:h.DataOffsets[1]]
	hi, want := bits.Mul64(uint64(shape.NumElements()), uint64(size))
	if hi != 0 || want != uint64(len(chunk)) {
		return nil, errors.Wrapf(ErrInvalidFormat, "tensor %q: %d bytes for shape %v of %s",
			name, len(chunk), []int(shape), h.DType)
	}

	values := make([]float64, shape.NumElements())
	for i := range values {
		b := chunk[i*size : (i+1)*size]
		switch h.DType {
		case F64:
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		case F32:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		case F16:
			values[i] = float64(float16.Frombits(binary.LittleEndian.Uint16(b)).Float32())
		}
	}
	return array.New(values, shape)
}

// Load reads a checkpoint file.
//
// On Unix the file is memory-mapped for the duration of decoding.
func Load(path string) (*File, error) {
	//nolint:gosec // G304: path comes from the caller, which is expected for checkpoints
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open checkpoint")
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat checkpoint")
	}
	if stat.Size() == 0 {
		return decode(nil)
	}

	buf, err := mmapFile(file, stat.Size())
	if err != nil {
		return nil, errors.Wrap(err, "map checkpoint")
	}
	defer func() { _ = munmapFile(buf) }()
	return decode(buf)
}

// LoadInto copies stored values into params in place. Every parameter must
// be present with a matching shape; extra tensors in the file are ignored.
// Gradients are left untouched.
func LoadInto(path string, params map[string]*autodiff.Tensor) error {
	f, err := Load(path)
	if err != nil {
		return err
	}
	return f.CopyInto(params)
}

// CopyInto copies the decoded values into params in place.
func (f *File) CopyInto(params map[string]*autodiff.Tensor) error {
	// Validate everything before touching any parameter.
	for name, p := range params {
		a, ok := f.Tensors[name]
		if !ok {
			return errors.Wrapf(ErrMissingTensor, "%q", name)
		}
		if !a.Shape().Equal(p.Shape()) {
			return errors.Wrapf(array.ErrShapeMismatch, "tensor %q: checkpoint has %v, parameter has %v",
				name, []int(a.Shape()), []int(p.Shape()))
		}
	}
	for name, p := range params {
		copy(p.Value().Data(), f.Tensors[name].Data())
	}
	return nil
}
