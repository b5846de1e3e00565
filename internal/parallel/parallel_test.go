package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestRange_CoversEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 5}

	hits := make([]int32, 101)
	var chunks int64
	Range(len(hits), func(lo, hi int) {
		atomic.AddInt64(&chunks, 1)
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	}, cfg)

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
	assert.Greater(t, chunks, int64(1))
}

func TestRange_Sequential(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		n    int
	}{
		{"disabled", Config{Enabled: false, NumWorkers: 8, MinChunkSize: 1}, 100},
		{"below threshold", Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}, 100},
		{"single worker", Config{Enabled: true, NumWorkers: 1, MinChunkSize: 1}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			Range(tt.n, func(lo, hi int) {
				calls++
				assert.Equal(t, 0, lo)
				assert.Equal(t, tt.n, hi)
			}, tt.cfg)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestRange_Empty(t *testing.T) {
	called := false
	Range(0, func(_, _ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

func BenchmarkRange(b *testing.B) {
	cfg := DefaultConfig()
	data := make([]float64, 1<<20)

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Range(len(data), func(lo, hi int) {
				for j := lo; j < hi; j++ {
					data[j] = data[j]*0.5 + 1
				}
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			Range(len(data), func(lo, hi int) {
				for j := lo; j < hi; j++ {
					data[j] = data[j]*0.5 + 1
				}
			}, cfgSeq)
		}
	})
}
