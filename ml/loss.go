package ml

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Loss maps a batch of logits and labels to a scalar and dL/d(logits).
type Loss interface {
	Compute(logits *Matrix, labels []int) (float64, *Matrix, error)
}

// CrossEntropy is softmax followed by negative log-likelihood, averaged over
// the batch.
type CrossEntropy struct{}

func (CrossEntropy) Compute(logits *Matrix, labels []int) (float64, *Matrix, error) {
	if len(labels) != logits.rows {
		return 0, nil, fmt.Errorf("%w: %d labels for %d rows of logits", ErrShapeMismatch, len(labels), logits.rows)
	}

	grad := NewMatrix(logits.rows, logits.cols)
	copy(grad.data, logits.data)

	totalLoss := 0.0
	for i, label := range labels {
		if label < 0 || label >= logits.cols {
			return 0, nil, fmt.Errorf("%w: label %d at row %d, want [0, %d)", ErrClassOutOfRange, label, i, logits.cols)
		}
		row := logits.Row(i)
		totalLoss += floats.LogSumExp(row) - row[label]
	}

	// Output Error (Softmax + CrossEntropy): (p - onehot) / n
	SoftmaxRow(grad)
	scale := 1.0 / float64(logits.rows)
	for i, label := range labels {
		grad.data[i*grad.cols+label] -= 1.0
	}
	grad.ApplyFunc(func(v float64) float64 { return v * scale })

	return totalLoss * scale, grad, nil
}
