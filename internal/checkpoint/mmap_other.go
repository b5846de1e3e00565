//go:build !unix

package checkpoint

import (
	"io"
	"os"
)

// mmapFile reads the whole file where memory mapping is unavailable.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func munmapFile([]byte) error { return nil }
