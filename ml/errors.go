package ml

import "errors"

var (
	ErrInvalidArchitecture = errors.New("invalid network architecture")
	ErrShapeMismatch       = errors.New("shape mismatch")
	ErrNoForwardPass       = errors.New("backward called without a recorded forward pass")
	ErrClassOutOfRange     = errors.New("class index out of range")
	ErrEmptySource         = errors.New("batch source yielded no batches")
	ErrSingleBatch         = errors.New("legacy average loss is undefined for a single batch")
	ErrInvalidConfig       = errors.New("invalid training config")
)
