package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// LoadCSV reads MNIST-style rows of "label,p0,p1,...,pN". A first row whose
// label column is not an integer is treated as a header and skipped.
func LoadCSV(path string) ([][]float64, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	X, Y, err := ReadCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return X, Y, nil
}

// ReadCSV is LoadCSV for an already opened stream.
func ReadCSV(r io.Reader) ([][]float64, []int, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	var X [][]float64
	var Y []int
	width := -1

	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("line %d: want a label and at least one feature, got %d fields", line, len(rec))
		}

		label, err := strconv.Atoi(rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, nil, fmt.Errorf("line %d: label: %w", line, err)
		}

		if width == -1 {
			width = len(rec) - 1
		} else if len(rec)-1 != width {
			return nil, nil, fmt.Errorf("line %d: want %d features, got %d", line, width, len(rec)-1)
		}

		row := make([]float64, width)
		for i := range row {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d, column %d: %w", line, i+2, err)
			}
			row[i] = v
		}
		X = append(X, row)
		Y = append(Y, label)
	}

	if len(X) == 0 {
		return nil, nil, errors.New("no samples found")
	}
	return X, Y, nil
}

// MinMaxNormalize scales every value in X to [0, 1] using the global min and
// max, in place. A constant dataset is set to zero.
func MinMaxNormalize(X [][]float64) {
	lo, hi := MinMaxRange(X)
	ScaleRange(X, lo, hi)
}

// MinMaxRange returns the global min and max of X. Both are zero when X is
// empty.
func MinMaxRange(X [][]float64) (lo, hi float64) {
	if len(X) == 0 {
		return 0, 0
	}
	lo, hi = floats.Min(X[0]), floats.Max(X[0])
	for _, row := range X[1:] {
		lo = min(lo, floats.Min(row))
		hi = max(hi, floats.Max(row))
	}
	return lo, hi
}

// ScaleRange maps [lo, hi] onto [0, 1] in place. Values outside the range
// land outside [0, 1]; nothing is clamped. An empty range sets X to zero.
func ScaleRange(X [][]float64, lo, hi float64) {
	span := hi - lo
	for _, row := range X {
		if span == 0 {
			floats.Scale(0, row)
			continue
		}
		floats.AddConst(-lo, row)
		floats.Scale(1/span, row)
	}
}
