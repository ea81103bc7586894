package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeLoss(t *testing.T) {
	s := SummarizeLoss([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	// Sample standard deviation.
	assert.InDelta(t, 2.138089935, s.StdDev, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 2.0, s.First)
	assert.Equal(t, 9.0, s.Last)
}

func TestSummarizeLossEdges(t *testing.T) {
	assert.Equal(t, LossSummary{}, SummarizeLoss(nil))

	s := SummarizeLoss([]float64{1.5})
	assert.Equal(t, LossSummary{Count: 1, Mean: 1.5, Min: 1.5, Max: 1.5, First: 1.5, Last: 1.5}, s)
}
