// Package vector reads and writes the flat float32 embedding sidecars
// that sit next to each chunk and memory markdown file.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Write serializes v as little-endian float32 bytes to path.
func Write(path string, v []float32) error {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("vector: write %s: %w", path, err)
	}
	return nil
}

// Read deserializes a little-endian float32 vector from path.
func Read(path string) ([]float32, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vector: read %s: %w", path, err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector: %s has invalid length %d", path, len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	return math.Sqrt(sumSq)
}

// Dot returns the dot product of a and b. Callers must ensure equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
