package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Matrix file layout (little-endian): uint32 dimension, uint32 row count, then
// rows*dimension float32 values. Row order matches the entries table.

// writeMatrix writes the matrix to path atomically (temp file + rename), so a
// crash mid-write never leaves a truncated matrix behind the old one.
func writeMatrix(path string, matrix [][]float32, dimensions int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create matrix dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp matrix file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := binary.Write(tmp, binary.LittleEndian, uint32(dimensions)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(tmp, binary.LittleEndian, uint32(len(matrix))); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write row count: %w", err)
	}
	for i, row := range matrix {
		if _, err := tmp.Write(float32SliceToBytes(row)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp matrix file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace matrix file: %w", err)
	}
	return nil
}

// readMatrix reads the matrix at path. A missing file returns (nil, 0, nil);
// any decode failure returns an error wrapping ErrCorrupt.
func readMatrix(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("%w: open matrix file: %v", ErrCorrupt, err)
	}
	defer f.Close()

	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, 0, fmt.Errorf("%w: read dimensions: %v", ErrCorrupt, err)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, 0, fmt.Errorf("%w: read row count: %v", ErrCorrupt, err)
	}
	if dim == 0 {
		// A saved empty index has no rows and no dimensionality.
		if n == 0 {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("%w: zero dimension", ErrCorrupt)
	}
	matrix := make([][]float32, 0, n)
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, 0, fmt.Errorf("%w: read row %d: %v", ErrCorrupt, i, err)
		}
		matrix = append(matrix, bytesToFloat32Slice(buf))
	}
	return matrix, int(dim), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
