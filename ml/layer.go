package ml

import (
	"fmt"
	"math/rand/v2"
)

const (
	StageLinear StageKind = iota
	StageReLU
)

// -------- TYPE DEFINITIONS -------- //
type StageKind int

func (k StageKind) String() string {
	switch k {
	case StageLinear:
		return "Linear"
	case StageReLU:
		return "ReLU"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// Stage is one step of the network pipeline. Only Linear stages carry
// parameters; a ReLU stage only remembers its pre-activation for backprop.
type Stage struct {
	Kind StageKind

	// Linear parameters. Weights is [in, out], Biases is [1, out].
	Weights *Matrix
	Biases  *Matrix

	// Accumulated gradients, cleared by Network.ZeroGrad
	dW *Matrix
	db *Matrix

	// Forward State
	input *Matrix
	out   *Matrix

	// Backward State
	dIn     *Matrix
	scratch *Matrix
}

// LayerState holds per-stage optimizer memory.
type LayerState struct {
	mW, vW *Matrix
	mB, vB *Matrix
}

// ------- STAGE CONSTRUCTORS ------- //

// Linear creates an in->out affine stage with He-normal weights and zero biases.
func Linear(in, out int, rng *rand.Rand) *Stage {
	s := &Stage{
		Kind:    StageLinear,
		Weights: NewMatrix(in, out),
		Biases:  NewMatrix(1, out),
		dW:      NewMatrix(in, out),
		db:      NewMatrix(1, out),
		scratch: NewMatrix(in, out),
	}
	s.Weights.Randomize(rng)
	return s
}

// ReLU creates a rectifier stage.
func ReLU() *Stage {
	return &Stage{Kind: StageReLU}
}

// InDim returns the number of input features of a Linear stage.
func (s *Stage) InDim() int {
	if s.Weights == nil {
		return 0
	}
	return s.Weights.rows
}

// OutDim returns the number of output features of a Linear stage.
func (s *Stage) OutDim() int {
	if s.Weights == nil {
		return 0
	}
	return s.Weights.cols
}

// WeightGrad returns the accumulated weight gradient.
func (s *Stage) WeightGrad() *Matrix { return s.dW }

// BiasGrad returns the accumulated bias gradient.
func (s *Stage) BiasGrad() *Matrix { return s.db }

func (s *Stage) String() string {
	if s.Kind == StageLinear {
		return fmt.Sprintf("Linear(%d→%d)", s.InDim(), s.OutDim())
	}
	return s.Kind.String()
}

// -------- STAGE METHODS -------- //

func (s *Stage) forward(x *Matrix, record bool) *Matrix {
	switch s.Kind {
	case StageLinear:
		s.out = ensure(s.out, x.rows, s.Weights.cols)
		MatMul(x.dense, s.Weights.dense, s.out)
		s.out.AddVector(s.Biases)
	case StageReLU:
		s.out = ensure(s.out, x.rows, x.cols)
		copy(s.out.data, x.data)
		s.out.ApplyRelu()
	default:
		panic("Unknown stage kind")
	}
	if record {
		s.input = x
	} else {
		s.input = nil
	}
	return s.out
}

// backward accumulates parameter gradients and, when needInput is set,
// returns dL/d(input).
func (s *Stage) backward(grad *Matrix, needInput bool) (*Matrix, error) {
	if s.input == nil {
		return nil, ErrNoForwardPass
	}
	switch s.Kind {
	case StageLinear:
		// dW += X^T * dZ
		MatMul(s.input.dense.T(), grad.dense, s.scratch)
		s.dW.Add(s.scratch)

		// db += column sums of dZ
		dbData := s.db.data
		for r := 0; r < grad.rows; r++ {
			row := grad.Row(r)
			for c, v := range row {
				dbData[c] += v
			}
		}

		if !needInput {
			return nil, nil
		}
		s.dIn = ensure(s.dIn, grad.rows, s.Weights.rows)
		MatMul(grad.dense, s.Weights.dense.T(), s.dIn)
		return s.dIn, nil

	case StageReLU:
		s.dIn = ensure(s.dIn, grad.rows, grad.cols)
		zData := s.input.data
		for k, g := range grad.data {
			if zData[k] <= 0 {
				s.dIn.data[k] = 0
			} else {
				s.dIn.data[k] = g
			}
		}
		return s.dIn, nil
	}
	return nil, fmt.Errorf("unknown stage kind %v", s.Kind)
}

func (s *Stage) zeroGrad() {
	if s.Kind != StageLinear {
		return
	}
	s.dW.Reset()
	s.db.Reset()
}

// ensure returns m if it already has the requested shape, otherwise a new matrix.
func ensure(m *Matrix, rows, cols int) *Matrix {
	if m != nil && m.rows == rows && m.cols == cols {
		return m
	}
	return NewMatrix(rows, cols)
}
