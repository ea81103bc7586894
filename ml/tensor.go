package ml

import "fmt"

// Tensor is a rank-4 batch laid out row-major as (batch, channels, height, width).
type Tensor struct {
	Batch, Channels, Height, Width int
	Data                           []float64
}

// NewTensor wraps data as a (n, c, h, w) tensor without copying it.
func NewTensor(n, c, h, w int, data []float64) (*Tensor, error) {
	if n < 0 || c <= 0 || h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: invalid tensor shape (%d, %d, %d, %d)", ErrShapeMismatch, n, c, h, w)
	}
	if len(data) != n*c*h*w {
		return nil, fmt.Errorf("%w: tensor shape (%d, %d, %d, %d) needs %d values, got %d",
			ErrShapeMismatch, n, c, h, w, n*c*h*w, len(data))
	}
	return &Tensor{Batch: n, Channels: c, Height: h, Width: w, Data: data}, nil
}

// ExampleSize is the flattened length of one example.
func (t *Tensor) ExampleSize() int {
	return t.Channels * t.Height * t.Width
}

// Example returns a view of the i-th example, flattened.
func (t *Tensor) Example(i int) []float64 {
	size := t.ExampleSize()
	return t.Data[i*size : (i+1)*size]
}

// Flatten views the tensor as a (batch, channels*height*width) matrix.
func (t *Tensor) Flatten() *Matrix {
	return NewMatrixFromSlice(t.Batch, t.ExampleSize(), t.Data)
}

// Batch is a group of same-shaped labelled examples.
type Batch struct {
	Inputs *Tensor
	Labels []int
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	if b.Inputs == nil {
		return 0
	}
	return b.Inputs.Batch
}

// BatchSource yields labelled batches in a fixed order.
type BatchSource interface {
	NumBatches() int
	Batch(i int) (Batch, error)
}
