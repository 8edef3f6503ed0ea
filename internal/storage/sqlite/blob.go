package sqlite

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxStoredVoxels bounds the label buffer a stored row can make us allocate (1 GiB of int32).
const maxStoredVoxels = 1 << 28

// ErrTooManyVoxels is returned when a stored grid claims more voxels than maxStoredVoxels.
var ErrTooManyVoxels = errors.New("stored grid exceeds voxel limit")

// voxelCount multiplies stored dimensions, refusing products above maxStoredVoxels.
// Dimensions must already be positive.
func voxelCount(dims [3]int) (int, error) {
	n := 1
	for _, d := range dims {
		if d > maxStoredVoxels/n {
			return 0, fmt.Errorf("%w: %dx%dx%d", ErrTooManyVoxels, dims[0], dims[1], dims[2])
		}
		n *= d
	}
	return n, nil
}

// encodeLabels gzips labels as little-endian int32.
func encodeLabels(labels []int32) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := binary.Write(zw, binary.LittleEndian, labels); err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeLabels reverses encodeLabels, expecting exactly n labels.
func decodeLabels(blob []byte, n int) ([]int32, error) {
	if n < 0 || n > maxStoredVoxels {
		return nil, fmt.Errorf("decode labels: %w: %d", ErrTooManyVoxels, n)
	}
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	defer zr.Close()

	labels := make([]int32, n)
	if err := binary.Read(zr, binary.LittleEndian, labels); err != nil {
		return nil, fmt.Errorf("decode labels: want %d labels: %w", n, err)
	}
	if extra, _ := io.Copy(io.Discard, zr); extra != 0 {
		return nil, fmt.Errorf("decode labels: %d trailing bytes", extra)
	}
	return labels, nil
}
