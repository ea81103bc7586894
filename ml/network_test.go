package ml

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetworkStageSequence(t *testing.T) {
	nw, err := NewNetwork(4, 2, 8, 1, seededRNG(1))
	require.NoError(t, err)

	assert.Equal(t, "[Linear(4→8), ReLU, Linear(8→2)]", nw.String())

	out, err := nw.Forward(randomTensor(seededRNG(2), 3, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, 2, out.Cols())
}

func TestNewNetworkStageCounts(t *testing.T) {
	for numHidden := 0; numHidden <= 4; numHidden++ {
		nw, err := NewNetwork(6, 3, 5, numHidden, seededRNG(uint64(numHidden)))
		require.NoError(t, err)

		linear, relu := 0, 0
		for _, s := range nw.Stages {
			switch s.Kind {
			case StageLinear:
				linear++
			case StageReLU:
				relu++
			}
		}
		assert.Equal(t, numHidden+1, linear, "numHidden=%d", numHidden)
		assert.Equal(t, numHidden, relu, "numHidden=%d", numHidden)

		// Hidden blocks alternate and the output stage has no trailing ReLU.
		last := nw.Stages[len(nw.Stages)-1]
		assert.Equal(t, StageLinear, last.Kind)
		assert.Equal(t, 3, last.OutDim())
		assert.Equal(t, 6, nw.Stages[0].InDim())

		out, err := nw.Forward(randomTensor(seededRNG(9), 7, 2, 1, 3))
		require.NoError(t, err)
		assert.Equal(t, 7, out.Rows())
		assert.Equal(t, 3, out.Cols())
	}
}

func TestNewNetworkWithoutHiddenLayers(t *testing.T) {
	nw, err := NewNetwork(4, 3, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "[Linear(4→3)]", nw.String())
	assert.Equal(t, 4*3+3, nw.NumParams())
}

func TestNewNetworkRejectsInvalidArchitecture(t *testing.T) {
	cases := []struct {
		name                          string
		indim, outdim, hdim, numHidden int
	}{
		{"zero indim", 0, 2, 4, 1},
		{"zero outdim", 4, 0, 4, 1},
		{"negative hidden count", 4, 2, 4, -1},
		{"zero hidden width", 4, 2, 0, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewNetwork(tc.indim, tc.outdim, tc.hdim, tc.numHidden, seededRNG(1))
			assert.ErrorIs(t, err, ErrInvalidArchitecture)
		})
	}
}

func TestNewNetworkIsReproducible(t *testing.T) {
	a, err := NewNetwork(5, 3, 4, 2, seededRNG(7))
	require.NoError(t, err)
	b, err := NewNetwork(5, 3, 4, 2, seededRNG(7))
	require.NoError(t, err)

	for i, s := range a.LinearStages() {
		assert.Equal(t, s.Weights.Data(), b.LinearStages()[i].Weights.Data())
	}
}

func TestForwardRejectsShapeMismatch(t *testing.T) {
	nw, err := NewNetwork(4, 2, 8, 1, seededRNG(1))
	require.NoError(t, err)

	_, err = nw.Forward(randomTensor(seededRNG(1), 3, 1, 3, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	empty, err := NewTensor(0, 1, 2, 2, nil)
	require.NoError(t, err)
	_, err = nw.Forward(empty)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestForwardFlattensChannels(t *testing.T) {
	// 2 channels of 1x2 flatten to 4 features.
	nw, err := NewNetwork(4, 2, 3, 1, seededRNG(3))
	require.NoError(t, err)

	x := randomTensor(seededRNG(4), 2, 2, 1, 2)
	out, err := nw.Forward(x)
	require.NoError(t, err)
	got := append([]float64(nil), out.Data()...)

	flat, err := NewTensor(2, 1, 1, 4, x.Data)
	require.NoError(t, err)
	out, err = nw.Infer(flat)
	require.NoError(t, err)
	assert.Equal(t, got, out.Data())
}

func TestBackwardRequiresRecordedForward(t *testing.T) {
	nw, err := NewNetwork(4, 2, 8, 1, seededRNG(1))
	require.NoError(t, err)

	assert.ErrorIs(t, nw.Backward(NewMatrix(3, 2)), ErrNoForwardPass)

	_, err = nw.Infer(randomTensor(seededRNG(1), 3, 1, 2, 2))
	require.NoError(t, err)
	assert.ErrorIs(t, nw.Backward(NewMatrix(3, 2)), ErrNoForwardPass)

	_, err = nw.Forward(randomTensor(seededRNG(1), 3, 1, 2, 2))
	require.NoError(t, err)
	assert.ErrorIs(t, nw.Backward(NewMatrix(2, 2)), ErrShapeMismatch)
	assert.NoError(t, nw.Backward(NewMatrix(3, 2)))
}

func TestBackwardMatchesFiniteDifferences(t *testing.T) {
	rng := seededRNG(11)
	nw, err := NewNetwork(3, 4, 5, 2, rng)
	require.NoError(t, err)
	batch := randomBatch(rng, 6, 3, 4)
	lossFn := CrossEntropy{}

	logits, err := nw.Forward(batch.Inputs)
	require.NoError(t, err)
	_, grad, err := lossFn.Compute(logits, batch.Labels)
	require.NoError(t, err)
	nw.ZeroGrad()
	require.NoError(t, nw.Backward(grad))

	lossAt := func() float64 {
		out, err := nw.Infer(batch.Inputs)
		require.NoError(t, err)
		l, _, err := lossFn.Compute(out, batch.Labels)
		require.NoError(t, err)
		return l
	}

	const eps = 1e-6
	check := func(params, analytic []float64, name string) {
		for i := range params {
			orig := params[i]
			params[i] = orig + eps
			plus := lossAt()
			params[i] = orig - eps
			minus := lossAt()
			params[i] = orig

			numeric := (plus - minus) / (2 * eps)
			assert.InDelta(t, numeric, analytic[i], 1e-5, "%s[%d]", name, i)
		}
	}
	for i, s := range nw.LinearStages() {
		check(s.Weights.Data(), s.WeightGrad().Data(), fmt.Sprintf("W%d", i))
		check(s.Biases.Data(), s.BiasGrad().Data(), fmt.Sprintf("b%d", i))
	}
}

func TestGradientsAccumulateUntilZeroGrad(t *testing.T) {
	rng := seededRNG(5)
	nw, err := NewNetwork(3, 2, 4, 1, rng)
	require.NoError(t, err)
	batch := randomBatch(rng, 4, 3, 2)

	logits, err := nw.Forward(batch.Inputs)
	require.NoError(t, err)
	_, grad, err := CrossEntropy{}.Compute(logits, batch.Labels)
	require.NoError(t, err)

	require.NoError(t, nw.Backward(grad))
	once := append([]float64(nil), nw.Stages[0].WeightGrad().Data()...)
	require.NoError(t, nw.Backward(grad))
	for i, v := range nw.Stages[0].WeightGrad().Data() {
		assert.InDelta(t, 2*once[i], v, 1e-12)
	}

	nw.ZeroGrad()
	for _, s := range nw.LinearStages() {
		for _, v := range s.WeightGrad().Data() {
			assert.Zero(t, v)
		}
		for _, v := range s.BiasGrad().Data() {
			assert.Zero(t, v)
		}
	}
}

func TestPredict(t *testing.T) {
	nw := identityNetwork(3)

	class, confidence, err := nw.Predict([]float64{0, 0, 5})
	require.NoError(t, err)
	assert.Equal(t, 2, class)
	want := math.Exp(5) / (math.Exp(5) + 2)
	assert.InDelta(t, want, confidence, 1e-9)

	_, _, err = nw.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArgmax(t *testing.T) {
	m := NewMatrixFromSlice(3, 3, []float64{
		0.1, 0.7, 0.2,
		3, -1, 2,
		0, 0, 0.5,
	})
	assert.Equal(t, []int{1, 0, 2}, Argmax(m))
}
