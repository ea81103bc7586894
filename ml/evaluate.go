package ml

import (
	"context"
	"fmt"
)

// Prediction pairs the network's answer for one example with its label and
// the flattened input it was computed from.
type Prediction struct {
	Predicted int
	Label     int
	Input     []float64
}

// EvalResult aggregates an evaluation pass.
type EvalResult struct {
	Accuracy      float64
	TotalLoss     float64 // sum of per-batch mean losses, not weighted by batch size
	NumBatches    int
	TotalCorrect  int
	TotalExamples int
	Predictions   []Prediction
}

// AverageLoss is TotalLoss divided by the number of batches.
func (r *EvalResult) AverageLoss() float64 {
	return r.TotalLoss / float64(r.NumBatches)
}

// LegacyAverageLoss divides by the last zero-based batch index
// (NumBatches-1), matching historical reports. One batch has no such divisor.
func (r *EvalResult) LegacyAverageLoss() (float64, error) {
	if r.NumBatches <= 1 {
		return 0, ErrSingleBatch
	}
	return r.TotalLoss / float64(r.NumBatches-1), nil
}

// Evaluate runs nw over src without recording gradients or touching
// parameters.
func Evaluate(ctx context.Context, nw *NeuralNetwork, src BatchSource, lossFn Loss) (*EvalResult, error) {
	numBatches := src.NumBatches()
	if numBatches == 0 {
		return nil, ErrEmptySource
	}

	res := &EvalResult{NumBatches: numBatches}
	for iteration := 0; iteration < numBatches; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := src.Batch(iteration)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iteration, err)
		}

		output, err := nw.Infer(batch.Inputs)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iteration, err)
		}

		batchLoss, _, err := lossFn.Compute(output, batch.Labels)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iteration, err)
		}

		batchPrediction := Argmax(output)
		res.TotalLoss += batchLoss
		res.TotalCorrect += countCorrect(batchPrediction, batch.Labels)
		res.TotalExamples += batch.Size()

		for i, p := range batchPrediction {
			input := make([]float64, batch.Inputs.ExampleSize())
			copy(input, batch.Inputs.Example(i))
			res.Predictions = append(res.Predictions, Prediction{
				Predicted: p,
				Label:     batch.Labels[i],
				Input:     input,
			})
		}
	}

	res.Accuracy = float64(res.TotalCorrect) / float64(res.TotalExamples)
	return res, nil
}
