package checkpoint_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/internal/array"
	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/checkpoint"
)

func arrays(t *testing.T) map[string]*array.Array {
	t.Helper()
	w, err := array.New([]float64{0.1, -0.2, 0.3, 1e-3, 2.5, -7}, array.Shape{2, 3})
	require.NoError(t, err)
	return map[string]*array.Array{
		"layer1.weight": w,
		"layer1.bias":   array.Full(array.Shape{3}, 0.5),
		"scale":         array.Scalar(3.25),
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	tests := []struct {
		dtype checkpoint.DType
		tol   float64
	}{
		{checkpoint.F64, 0},
		{checkpoint.F32, 1e-6},
		{checkpoint.F16, 5e-3},
	}
	for _, tt := range tests {
		t.Run(string(tt.dtype), func(t *testing.T) {
			want := arrays(t)
			var buf bytes.Buffer
			require.NoError(t, checkpoint.Write(&buf, want, checkpoint.Options{
				DType:    tt.dtype,
				Metadata: map[string]string{"epoch": "7"},
			}))

			f, err := checkpoint.Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, []string{"layer1.bias", "layer1.weight", "scale"}, f.Names())
			assert.Equal(t, "7", f.Metadata["epoch"])
			assert.NotEmpty(t, f.Metadata["sha256"])

			for name, a := range want {
				got := f.Tensors[name]
				require.NotNil(t, got, name)
				assert.Equal(t, a.Shape(), got.Shape(), name)
				assert.Equal(t, tt.dtype, f.DTypes[name])
				for i, v := range a.Data() {
					assert.InDelta(t, v, got.Data()[i], tt.tol+tt.tol*abs(v), name)
				}
			}
		})
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestWrite_HeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, checkpoint.Write(&buf, map[string]*array.Array{"b": array.Ones(array.Shape{2})}, checkpoint.Options{}))

	raw := buf.Bytes()
	size := binary.LittleEndian.Uint64(raw[:8])
	header := string(raw[8 : 8+size])
	assert.Contains(t, header, `"b":{"dtype":"F64","shape":[2],"data_offsets":[0,16]}`)
	assert.Len(t, raw, 8+int(size)+16)
}

func TestRead_Corruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, checkpoint.Write(&buf, arrays(t), checkpoint.Options{}))
	raw := buf.Bytes()

	flipped := append([]byte{}, raw...)
	flipped[len(flipped)-1] ^= 0xff
	_, err := checkpoint.Read(bytes.NewReader(flipped))
	assert.True(t, errors.Is(err, checkpoint.ErrChecksumMismatch))

	_, err = checkpoint.Read(bytes.NewReader(raw[:4]))
	assert.True(t, errors.Is(err, checkpoint.ErrInvalidFormat))

	bad := make([]byte, 8)
	binary.LittleEndian.PutUint64(bad, 1<<40)
	_, err = checkpoint.Read(bytes.NewReader(bad))
	assert.True(t, errors.Is(err, checkpoint.ErrInvalidFormat))
}

func TestWrite_RejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "../etc", "a/b", "__metadata__"} {
		err := checkpoint.Write(&bytes.Buffer{}, map[string]*array.Array{name: array.Scalar(1)}, checkpoint.Options{})
		assert.True(t, errors.Is(err, checkpoint.ErrInvalidFormat), name)
	}
}

func TestSaveLoadInto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")

	g := autodiff.NewGraph(autodiff.Config{Seed: 3})
	w := autodiff.Must(g.Randn(2, 3))
	b := autodiff.Must(g.Zeros(3))
	require.NoError(t, checkpoint.Save(path, map[string]*autodiff.Tensor{"w": w, "b": b}, checkpoint.Options{}))

	g2 := autodiff.NewGraph(autodiff.Config{Seed: 4})
	w2 := autodiff.Must(g2.Randn(2, 3))
	b2 := autodiff.Must(g2.Ones(3))
	require.NoError(t, checkpoint.LoadInto(path, map[string]*autodiff.Tensor{"w": w2, "b": b2}))
	assert.Equal(t, w.Value().Data(), w2.Value().Data())
	assert.Equal(t, []float64{0, 0, 0}, b2.Value().Data())

	missing := autodiff.Must(g2.Ones(1))
	err := checkpoint.LoadInto(path, map[string]*autodiff.Tensor{"missing": missing})
	assert.True(t, errors.Is(err, checkpoint.ErrMissingTensor))

	wrong := autodiff.Must(g2.Ones(3, 2))
	err = checkpoint.LoadInto(path, map[string]*autodiff.Tensor{"w": wrong})
	assert.True(t, errors.Is(err, array.ErrShapeMismatch))
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, wrong.Value().Data())

	_, err = checkpoint.Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoad_MappedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.safetensors")
	require.NoError(t, checkpoint.SaveArrays(path, arrays(t), checkpoint.Options{DType: checkpoint.F32}))

	f, err := checkpoint.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"layer1.bias", "layer1.weight", "scale"}, f.Names())
	assert.InDelta(t, 3.25, f.Tensors["scale"].Data()[0], 1e-6)

	empty := filepath.Join(dir, "empty.safetensors")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = checkpoint.Load(empty)
	assert.True(t, errors.Is(err, checkpoint.ErrInvalidFormat))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := filepath.Join(dir, "truncated.safetensors")
	require.NoError(t, os.WriteFile(truncated, raw[:20], 0o600))
	_, err = checkpoint.Load(truncated)
	assert.True(t, errors.Is(err, checkpoint.ErrInvalidFormat))
}

// rawCheckpoint builds a file image from a hand-written header.
func rawCheckpoint(header string, data []byte) []byte {
	buf := make([]byte, 8, 8+len(header)+len(data))
	binary.LittleEndian.PutUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	return append(buf, data...)
}

func TestRead_RejectsOversizedShapes(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"element count overflows", `{"t":{"dtype":"F64","shape":[65536,65536,65536,65536],"data_offsets":[0,0]}}`},
		{"byte count overflows", `{"t":{"dtype":"F64","shape":[2147483647,2147483647,4],"data_offsets":[0,0]}}`},
		{"larger than data", `{"t":{"dtype":"F32","shape":[1073741824,4],"data_offsets":[0,8]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := checkpoint.Read(bytes.NewReader(rawCheckpoint(tt.header, make([]byte, 8))))
			assert.Nil(t, f)
			assert.True(t, errors.Is(err, checkpoint.ErrInvalidFormat), "got %v", err)
		})
	}
}
