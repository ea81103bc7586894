package ml

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// defaultSeed seeds the generator used when NewNetwork gets a nil rng.
const defaultSeed = 42

// NeuralNetwork is a fully connected feed-forward classifier:
//
//	indim -> hdim -> ReLU -> (hdim -> hdim -> ReLU) x (numHidden-1) -> outdim
//
// It is not safe for concurrent use.
type NeuralNetwork struct {
	InDim     int
	OutDim    int
	HiddenDim int
	NumHidden int
	Stages    []*Stage

	recorded bool
}

// Neural Network Builder
//
// numHidden == 0 builds a single Linear(indim→outdim) stage.
func NewNetwork(indim, outdim, hdim, numHidden int, rng *rand.Rand) (*NeuralNetwork, error) {
	if indim <= 0 || outdim <= 0 {
		return nil, fmt.Errorf("%w: indim=%d outdim=%d must be positive", ErrInvalidArchitecture, indim, outdim)
	}
	if numHidden < 0 {
		return nil, fmt.Errorf("%w: numHidden=%d must not be negative", ErrInvalidArchitecture, numHidden)
	}
	if numHidden > 0 && hdim <= 0 {
		return nil, fmt.Errorf("%w: hdim=%d must be positive", ErrInvalidArchitecture, hdim)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(defaultSeed, defaultSeed))
	}

	nw := &NeuralNetwork{
		InDim:     indim,
		OutDim:    outdim,
		HiddenDim: hdim,
		NumHidden: numHidden,
	}

	prev := indim
	for i := 0; i < numHidden; i++ {
		nw.Stages = append(nw.Stages, Linear(prev, hdim, rng), ReLU())
		prev = hdim
	}
	nw.Stages = append(nw.Stages, Linear(prev, outdim, rng))

	return nw, nil
}

// -------- NEURAL NETWORK METHODS -------- //

// Forward flattens x to (batch, c*h*w), runs it through every stage and
// records what Backward needs. The returned logits are owned by the network
// and overwritten by the next pass.
func (nw *NeuralNetwork) Forward(x *Tensor) (*Matrix, error) {
	return nw.run(x, true)
}

// Infer is Forward without recording; Backward after Infer fails.
func (nw *NeuralNetwork) Infer(x *Tensor) (*Matrix, error) {
	return nw.run(x, false)
}

func (nw *NeuralNetwork) run(x *Tensor, record bool) (*Matrix, error) {
	if x == nil || x.Batch == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrShapeMismatch)
	}
	if got := x.ExampleSize(); got != nw.InDim {
		return nil, fmt.Errorf("%w: input (%d, %d, %d, %d) flattens to %d features, network expects %d",
			ErrShapeMismatch, x.Batch, x.Channels, x.Height, x.Width, got, nw.InDim)
	}

	activation := x.Flatten()
	for _, stage := range nw.Stages {
		activation = stage.forward(activation, record)
	}
	nw.recorded = record
	return activation, nil
}

// Backward propagates dL/d(logits) through the stages recorded by the last
// Forward, adding into each Linear stage's gradients.
func (nw *NeuralNetwork) Backward(grad *Matrix) error {
	if !nw.recorded {
		return ErrNoForwardPass
	}
	last := nw.Stages[len(nw.Stages)-1]
	if grad.rows != last.out.rows || grad.cols != last.out.cols {
		return fmt.Errorf("%w: gradient is [%d, %d], logits are [%d, %d]",
			ErrShapeMismatch, grad.rows, grad.cols, last.out.rows, last.out.cols)
	}

	for i := len(nw.Stages) - 1; i >= 0; i-- {
		var err error
		grad, err = nw.Stages[i].backward(grad, i > 0)
		if err != nil {
			return fmt.Errorf("stage %d (%v): %w", i, nw.Stages[i], err)
		}
	}
	return nil
}

// ZeroGrad clears the accumulated gradients of every stage.
func (nw *NeuralNetwork) ZeroGrad() {
	for _, s := range nw.Stages {
		s.zeroGrad()
	}
}

// LinearStages returns the parameterised stages in order.
func (nw *NeuralNetwork) LinearStages() []*Stage {
	var out []*Stage
	for _, s := range nw.Stages {
		if s.Kind == StageLinear {
			out = append(out, s)
		}
	}
	return out
}

// NumParams counts weights and biases.
func (nw *NeuralNetwork) NumParams() int {
	total := 0
	for _, s := range nw.LinearStages() {
		total += len(s.Weights.data) + len(s.Biases.data)
	}
	return total
}

func (nw *NeuralNetwork) String() string {
	parts := make([]string, len(nw.Stages))
	for i, s := range nw.Stages {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Predict takes one flattened example, passes it through the network and
// returns the best class with its softmax probability.
func (nw *NeuralNetwork) Predict(inputData []float64) (int, float64, error) {
	if len(inputData) != nw.InDim {
		return -1, 0, fmt.Errorf("%w: input size %d, network expects %d", ErrShapeMismatch, len(inputData), nw.InDim)
	}

	// We treat the single example as a batch of size 1.
	x, err := NewTensor(1, 1, 1, nw.InDim, inputData)
	if err != nil {
		return -1, 0, err
	}
	logits, err := nw.Infer(x)
	if err != nil {
		return -1, 0, err
	}

	probs := NewMatrix(1, logits.cols)
	copy(probs.data, logits.data)
	SoftmaxRow(probs)

	best := floats.MaxIdx(probs.data)
	return best, probs.data[best], nil
}

// Argmax returns the index of the highest score in every row.
func Argmax(m *Matrix) []int {
	out := make([]int, m.rows)
	for i := range out {
		out[i] = floats.MaxIdx(m.Row(i))
	}
	return out
}

// countCorrect returns how many predictions equal their label.
func countCorrect(pred, labels []int) int {
	correct := 0
	for i, p := range pred {
		if p == labels[i] {
			correct++
		}
	}
	return correct
}
