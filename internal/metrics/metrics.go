// Package metrics computes forecast error summaries.
package metrics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNoSamples is returned when there is nothing to evaluate
	ErrNoSamples      = errors.New("no samples to evaluate")
	// ErrLengthMismatch is returned when actual and predicted differ in length
	ErrLengthMismatch = errors.New("actual and predicted lengths differ")
)

func check(actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return fmt.Errorf("%d actual vs %d predicted: %w", len(actual), len(predicted), ErrLengthMismatch)
	}
	if len(actual) == 0 {
		return ErrNoSamples
	}
	return nil
}

func sumSquaredError(actual, predicted []float64) float64 {
	sse := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sse += d * d
	}
	return sse
}

// MSE returns mean((actual - predicted)^2).
func MSE(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	return sumSquaredError(actual, predicted) / float64(len(actual)), nil
}

// RSquared returns 1 - SSE/SST. A constant actual series gives NaN or -Inf,
// following IEEE division.
func RSquared(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}

	return stat.RSquaredFrom(predicted, actual, nil), nil
}
