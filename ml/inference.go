package ml

import (
	"fmt"
	"io"
)

// ImageLoader reads an image file as a flattened width*height slice in [0, 1].
type ImageLoader func(path string, width, height int) ([]float64, error)

// InferenceImg classifies a single image file and reports the result to out.
func InferenceImg(nw *NeuralNetwork, imagePath string, width, height int, load ImageLoader, out io.Writer) (int, float64, error) {
	fmt.Fprintf(out, "Running Inference on: %s\n", imagePath)

	// 1. Load & Convert
	pixelData, err := load(imagePath, width, height)
	if err != nil {
		return -1, 0, fmt.Errorf("load image: %w", err)
	}

	// 2. Predict
	prediction, confidence, err := nw.Predict(pixelData)
	if err != nil {
		return -1, 0, err
	}

	fmt.Fprintf(out, "Predicted Digit: %d\n", prediction)
	fmt.Fprintf(out, "Confidence: %.2f%%\n", confidence*100)
	return prediction, confidence, nil
}
