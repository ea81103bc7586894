package data

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/b0tShaman/fcnet/ml"
)

// Dataset holds flattened images with their class labels. Every image has
// Channels*Height*Width values.
type Dataset struct {
	Images   [][]float64
	Labels   []int
	Channels int
	Height   int
	Width    int
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.Images) }

func (d *Dataset) validate() error {
	if len(d.Images) != len(d.Labels) {
		return fmt.Errorf("dataset has %d images but %d labels", len(d.Images), len(d.Labels))
	}
	if d.Channels <= 0 || d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("invalid image shape (%d, %d, %d)", d.Channels, d.Height, d.Width)
	}
	size := d.Channels * d.Height * d.Width
	for i, img := range d.Images {
		if len(img) != size {
			return fmt.Errorf("image %d has %d values, want %d", i, len(img), size)
		}
	}
	return nil
}

type LoaderOption func(*Loader)

// WithShuffle permutes the example order once, when the loader is built.
func WithShuffle(seed uint64) LoaderOption {
	return func(l *Loader) {
		ShuffleIndices(l.indices, rand.New(rand.NewPCG(seed, seed)))
	}
}

// Loader serves a Dataset as fixed-size batches in a stable order. The final
// batch is short when the dataset size is not a multiple of the batch size.
// It implements ml.BatchSource.
type Loader struct {
	ds        *Dataset
	batchSize int
	indices   []int
}

func NewLoader(ds *Dataset, batchSize int, opts ...LoaderOption) (*Loader, error) {
	if ds == nil {
		return nil, errors.New("nil dataset")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0 (got %d)", batchSize)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}

	l := &Loader{
		ds:        ds,
		batchSize: batchSize,
		indices:   NewIndexList(ds.Len()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loader) NumBatches() int {
	return (len(l.indices) + l.batchSize - 1) / l.batchSize
}

// Batch copies the i-th group of examples into a fresh tensor.
func (l *Loader) Batch(i int) (ml.Batch, error) {
	if i < 0 || i >= l.NumBatches() {
		return ml.Batch{}, fmt.Errorf("batch %d out of range [0, %d)", i, l.NumBatches())
	}
	start := i * l.batchSize
	end := min(start+l.batchSize, len(l.indices))
	n := end - start

	size := l.ds.Channels * l.ds.Height * l.ds.Width
	x := make([]float64, n*size)
	y := make([]int, n)
	Gather(l.indices[start:end], l.ds.Images, l.ds.Labels, x, y)

	t, err := ml.NewTensor(n, l.ds.Channels, l.ds.Height, l.ds.Width, x)
	if err != nil {
		return ml.Batch{}, err
	}
	return ml.Batch{Inputs: t, Labels: y}, nil
}

// ------ DATA HANDLING HELPERS ------
func NewIndexList(size int) []int {
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func ShuffleIndices(indices []int, rng *rand.Rand) {
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

// Gather copies the selected rows into a contiguous destination so the batch
// can be wrapped as one matrix without reshuffling the source.
func Gather(batchIndices []int, images [][]float64, labels []int, destX []float64, destY []int) {
	for localRowIdx, realDataIdx := range batchIndices {
		destY[localRowIdx] = labels[realDataIdx]

		row := images[realDataIdx]
		copy(destX[localRowIdx*len(row):], row)
	}
}
