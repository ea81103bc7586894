package ml

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LossSummary condenses a training loss log.
type LossSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	First  float64
	Last   float64
}

// SummarizeLoss returns a zero summary for an empty log.
func SummarizeLoss(losses []float64) LossSummary {
	if len(losses) == 0 {
		return LossSummary{}
	}
	s := LossSummary{
		Count: len(losses),
		Min:   floats.Min(losses),
		Max:   floats.Max(losses),
		First: losses[0],
		Last:  losses[len(losses)-1],
	}
	if len(losses) == 1 {
		s.Mean = losses[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(losses, nil)
	return s
}
