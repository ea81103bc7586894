package ml

import (
	"context"
	"fmt"
	"io"
	"os"
)

type TrainingConfig struct {
	Epochs     int
	PrintEvery int       // Log when iteration % PrintEvery == 0 (iteration restarts every epoch)
	Out        io.Writer // Progress lines; os.Stdout when nil
}

// Train runs Epochs passes over src, taking one optimizer step per batch, and
// returns every batch loss in chronological order. The source is visited in
// its own order; Train never reshuffles.
func Train(ctx context.Context, nw *NeuralNetwork, src BatchSource, lossFn Loss, opt Optimizer, cfg TrainingConfig) ([]float64, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	numBatches := src.NumBatches()
	trainingLoss := make([]float64, 0, cfg.Epochs*numBatches)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for iteration := 0; iteration < numBatches; iteration++ {
			if err := ctx.Err(); err != nil {
				return trainingLoss, err
			}

			batchLoss, batchAcc, err := trainStep(nw, src, iteration, lossFn, opt)
			if err != nil {
				return trainingLoss, fmt.Errorf("epoch %d, iteration %d: %w", epoch, iteration, err)
			}

			if iteration%cfg.PrintEvery == 0 {
				fmt.Fprintf(out, "Epoch: %d, Iteration: %d, Loss: %.2f, Acc: %.2f\n", epoch, iteration, batchLoss, batchAcc)
			}

			trainingLoss = append(trainingLoss, batchLoss)
		}
	}

	return trainingLoss, nil
}

// trainStep is one forward/backward/update cycle on batch i of src.
func trainStep(nw *NeuralNetwork, src BatchSource, i int, lossFn Loss, opt Optimizer) (float64, float64, error) {
	batch, err := src.Batch(i)
	if err != nil {
		return 0, 0, err
	}

	output, err := nw.Forward(batch.Inputs)
	if err != nil {
		return 0, 0, err
	}

	loss, grad, err := lossFn.Compute(output, batch.Labels)
	if err != nil {
		return 0, 0, err
	}

	// Accuracy is read from the logits before the update mutates parameters.
	prediction := Argmax(output)
	accuracy := float64(countCorrect(prediction, batch.Labels)) / float64(batch.Size())

	nw.ZeroGrad()
	if err := nw.Backward(grad); err != nil {
		return 0, 0, err
	}
	opt.Update(nw)

	return loss, accuracy, nil
}

func validateConfig(cfg TrainingConfig) error {
	if cfg.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrInvalidConfig, cfg.Epochs)
	}
	if cfg.PrintEvery <= 0 {
		return fmt.Errorf("%w: print every must be > 0 (got %d)", ErrInvalidConfig, cfg.PrintEvery)
	}
	return nil
}
