package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	OptSGD      OptimizerType = "sgd"
	OptMomentum OptimizerType = "momentum"
	OptAdam     OptimizerType = "adam"
)

// Default settings generally recommended for Adam
var DefaultAdamConfig = AdamConfig{
	Beta1:        0.9,
	Beta2:        0.999,
	Epsilon:      1e-8,
	LearningRate: 0.001,
}

type OptimizerType string

// OptimizerConfig selects an update rule and its hyper-parameters.
// Zero values fall back to defaults.
type OptimizerConfig struct {
	Type         OptimizerType
	LearningRate float64
	MomentumMu   float64 // For Momentum (usually 0.9)
	AdamBeta1    float64 // For Adam (usually 0.9)
	AdamBeta2    float64 // For Adam (usually 0.999)
	AdamEps      float64 // For Adam (usually 1e-8)
}

type AdamConfig struct {
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	LearningRate float64
}

type AdamOptimizer struct {
	cfg         AdamConfig
	layerStates []*LayerState
	timeStep    int // 't' in the Adam paper, tracks number of updates
}

type SGDOptimizer struct {
	LearningRate float64
}

type MomentumOptimizer struct {
	LearningRate float64
	Mu           float64 // Momentum Factor (usually 0.9)

	layerStates []*LayerState
}

// Optimizer applies accumulated gradients to the network parameters in place.
type Optimizer interface {
	Update(nw *NeuralNetwork)
}

func NewOptimizer(nw *NeuralNetwork, cfg OptimizerConfig) Optimizer {
	switch cfg.Type {
	case OptAdam:
		// Set defaults if 0
		adamCfg := DefaultAdamConfig
		if cfg.AdamBeta1 != 0 {
			adamCfg.Beta1 = cfg.AdamBeta1
		}
		if cfg.AdamBeta2 != 0 {
			adamCfg.Beta2 = cfg.AdamBeta2
		}
		if cfg.AdamEps != 0 {
			adamCfg.Epsilon = cfg.AdamEps
		}
		if cfg.LearningRate != 0 {
			adamCfg.LearningRate = cfg.LearningRate
		}
		return NewAdamOptimizer(nw, adamCfg)

	case OptMomentum:
		return NewMomentumOptimizer(nw, cfg.LearningRate, cfg.MomentumMu)

	default:
		return &SGDOptimizer{LearningRate: cfg.LearningRate}
	}
}

func NewAdamOptimizer(nw *NeuralNetwork, cfg AdamConfig) *AdamOptimizer {
	opt := &AdamOptimizer{
		cfg:         cfg,
		layerStates: make([]*LayerState, len(nw.Stages)),
	}

	// Zero moments for every Linear stage
	for i, stage := range nw.Stages {
		if stage.Kind != StageLinear {
			continue
		}
		opt.layerStates[i] = &LayerState{
			mW: NewMatrix(stage.Weights.rows, stage.Weights.cols),
			vW: NewMatrix(stage.Weights.rows, stage.Weights.cols),
			mB: NewMatrix(stage.Biases.rows, stage.Biases.cols),
			vB: NewMatrix(stage.Biases.rows, stage.Biases.cols),
		}
	}

	return opt
}

func NewMomentumOptimizer(nw *NeuralNetwork, lr, mu float64) *MomentumOptimizer {
	if mu == 0 {
		mu = 0.9
	} // Default

	opt := &MomentumOptimizer{
		LearningRate: lr,
		Mu:           mu,
		layerStates:  make([]*LayerState, len(nw.Stages)),
	}

	// Velocities live in mW/mB
	for i, stage := range nw.Stages {
		if stage.Kind != StageLinear {
			continue
		}
		opt.layerStates[i] = &LayerState{
			mW: NewMatrix(stage.Weights.rows, stage.Weights.cols),
			mB: NewMatrix(stage.Biases.rows, stage.Biases.cols),
		}
	}
	return opt
}

// ------ ADAM OPTIMIZER METHODS ------ //
// Update applies the Adam update rule to the network's weights and biases
func (opt *AdamOptimizer) Update(nw *NeuralNetwork) {
	opt.timeStep++
	t := float64(opt.timeStep)

	// correction1 = 1 - beta1^t
	// correction2 = 1 - beta2^t
	correction1 := 1.0 - math.Pow(opt.cfg.Beta1, t)
	correction2 := 1.0 - math.Pow(opt.cfg.Beta2, t)

	apply := func(params, grads, m, v []float64) {
		beta1 := opt.cfg.Beta1
		beta2 := opt.cfg.Beta2
		eps := opt.cfg.Epsilon
		lr := opt.cfg.LearningRate

		for i := range params {
			g := grads[i]

			// m_t = beta1 * m_{t-1} + (1 - beta1) * g
			m[i] = beta1*m[i] + (1.0-beta1)*g

			// v_t = beta2 * v_{t-1} + (1 - beta2) * g^2
			v[i] = beta2*v[i] + (1.0-beta2)*(g*g)

			mHat := m[i] / correction1
			vHat := v[i] / correction2

			// theta = theta - lr * mHat / (sqrt(vHat) + eps)
			params[i] -= lr * mHat / (math.Sqrt(vHat) + eps)
		}
	}

	for i, stage := range nw.Stages {
		if stage.Kind != StageLinear {
			continue
		}
		state := opt.layerStates[i]
		apply(stage.Weights.data, stage.dW.data, state.mW.data, state.vW.data)
		apply(stage.Biases.data, stage.db.data, state.mB.data, state.vB.data)
	}
}

// ------ MOMENTUM OPTIMIZER METHODS ------ //
func (opt *MomentumOptimizer) Update(nw *NeuralNetwork) {
	// v = mu * v - lr * grad
	// w = w + v
	applyMomentum := func(params, grads, velocity []float64) {
		for i := range params {
			velocity[i] = (opt.Mu * velocity[i]) - (opt.LearningRate * grads[i])
			params[i] += velocity[i]
		}
	}

	for i, stage := range nw.Stages {
		if stage.Kind != StageLinear {
			continue
		}
		state := opt.layerStates[i]
		applyMomentum(stage.Weights.data, stage.dW.data, state.mW.data)
		applyMomentum(stage.Biases.data, stage.db.data, state.mB.data)
	}
}

// ------ SGD OPTIMIZER METHODS ------ //
func (opt *SGDOptimizer) Update(nw *NeuralNetwork) {
	for _, stage := range nw.LinearStages() {
		// Simple update: W = W - (lr * gradient)
		floats.AddScaled(stage.Weights.data, -opt.LearningRate, stage.dW.data)
		floats.AddScaled(stage.Biases.data, -opt.LearningRate, stage.db.data)
	}
}
