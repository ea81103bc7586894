package ml

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// NumClasses is the fixed number of digit classes.
const NumClasses = 10

// ConfusionMatrix counts predictions: cell [predicted][label]. Every cell
// starts at 1 so no count is ever zero.
type ConfusionMatrix [NumClasses][NumClasses]int

// NewConfusionMatrix tallies preds and returns the records whose prediction
// differs from the label, in input order.
func NewConfusionMatrix(preds []Prediction) (*ConfusionMatrix, []Prediction, error) {
	cm := &ConfusionMatrix{}
	for i := range cm {
		for j := range cm[i] {
			cm[i][j] = 1
		}
	}

	var mistakes []Prediction
	for i, p := range preds {
		if p.Predicted < 0 || p.Predicted >= NumClasses || p.Label < 0 || p.Label >= NumClasses {
			return nil, nil, fmt.Errorf("%w: record %d has predicted=%d label=%d", ErrClassOutOfRange, i, p.Predicted, p.Label)
		}
		cm[p.Predicted][p.Label]++
		if p.Predicted != p.Label {
			mistakes = append(mistakes, p)
		}
	}
	return cm, mistakes, nil
}

// Total is the sum of all cells, smoothing included.
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for i := range cm {
		for _, v := range cm[i] {
			total += v
		}
	}
	return total
}

// Correct is the number of records on the diagonal, without smoothing.
func (cm *ConfusionMatrix) Correct() int {
	correct := 0
	for i := range cm {
		correct += cm[i][i] - 1
	}
	return correct
}

func (cm *ConfusionMatrix) String() string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "pred\\true\t")
	for j := 0; j < NumClasses; j++ {
		fmt.Fprintf(tw, "%d\t", j)
	}
	fmt.Fprintln(tw)
	for i := range cm {
		fmt.Fprintf(tw, "%d\t", i)
		for _, v := range cm[i] {
			fmt.Fprintf(tw, "%d\t", v)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	return sb.String()
}
