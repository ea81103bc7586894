package ml

import (
	"math/rand/v2"
)

// sliceSource serves pre-built batches; err, when set, is returned for batch failAt.
type sliceSource struct {
	batches []Batch
	failAt  int
	err     error
}

func (s *sliceSource) NumBatches() int { return len(s.batches) }

func (s *sliceSource) Batch(i int) (Batch, error) {
	if s.err != nil && i == s.failAt {
		return Batch{}, s.err
	}
	return s.batches[i], nil
}

func seededRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func randomTensor(rng *rand.Rand, n, c, h, w int) *Tensor {
	data := make([]float64, n*c*h*w)
	for i := range data {
		data[i] = rng.Float64()*2 - 1
	}
	t, err := NewTensor(n, c, h, w, data)
	if err != nil {
		panic(err)
	}
	return t
}

func randomBatch(rng *rand.Rand, n, features, classes int) Batch {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.IntN(classes)
	}
	return Batch{Inputs: randomTensor(rng, n, 1, 1, features), Labels: labels}
}

// oneHotBatch encodes each label as a one-hot input of width classes.
func oneHotBatch(labels []int, classes int) Batch {
	data := make([]float64, len(labels)*classes)
	for i, l := range labels {
		data[i*classes+l] = 1
	}
	t, err := NewTensor(len(labels), 1, 1, classes, data)
	if err != nil {
		panic(err)
	}
	return Batch{Inputs: t, Labels: labels}
}

// identityNetwork maps a one-hot input straight to matching logits.
func identityNetwork(classes int) *NeuralNetwork {
	nw, err := NewNetwork(classes, classes, classes, 1, seededRNG(1))
	if err != nil {
		panic(err)
	}
	for _, s := range nw.LinearStages() {
		s.Weights.Reset()
		s.Biases.Reset()
		for i := 0; i < classes; i++ {
			s.Weights.Set(i, i, 1)
		}
	}
	return nw
}
