package index

import "github.com/cortexlabs/cortex/internal/vector"

// writeMatrix flattens matrix row-major and writes it as a single float32
// vector file. Row widths must be equal; callers only ever pass
// embeddings of the configured dimension.
func writeMatrix(path string, matrix [][]float32) error {
	var flat []float32
	for _, row := range matrix {
		flat = append(flat, row...)
	}
	return vector.Write(path, flat)
}

// readMatrix reads the flat float32 file at path and reshapes it into n
// equal-width rows. n is the known row count (from the parallel ids
// file); the row width is derived as len(flat)/n.
func readMatrix(path string, n int) ([][]float32, error) {
	flat, err := vector.Read(path)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	dim := len(flat) / n
	matrix := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, dim)
		copy(row, flat[i*dim:(i+1)*dim])
		matrix[i] = row
	}
	return matrix, nil
}
