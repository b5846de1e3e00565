package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/autograd/internal/parallel"
)

// TestKernels_ParallelMatchesSequential forces the chunked path on small
// arrays and compares against a sequential run.
func TestKernels_ParallelMatchesSequential(t *testing.T) {
	t.Cleanup(func() { SetParallel(parallel.Config{}) })
	assert.False(t, kernelConfig().Enabled, "kernels run inline unless enabled")

	flat, err := Arange(0, 60, 1)
	require.NoError(t, err)
	a, err := flat.Reshape(Shape{3, 4, 5})
	require.NoError(t, err)
	row, err := Arange(0, 5, 1)
	require.NoError(t, err)
	square := func(x float64) float64 { return x * x }
	diff := func(x, y float64) float64 { return x - 2*y }

	SetParallel(parallel.Config{Enabled: false})
	wantMap := a.Map(square)
	wantBroadcast, err := Apply2(a, row, diff)
	require.NoError(t, err)
	wantSame, err := Apply2(a, a, diff)
	require.NoError(t, err)

	SetParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 3})
	gotMap := a.Map(square)
	gotBroadcast, err := Apply2(a, row, diff)
	require.NoError(t, err)
	gotSame, err := Apply2(a, a, diff)
	require.NoError(t, err)

	assert.Equal(t, wantMap.Data(), gotMap.Data())
	assert.Equal(t, wantBroadcast.Data(), gotBroadcast.Data())
	assert.Equal(t, wantSame.Data(), gotSame.Data())
}
