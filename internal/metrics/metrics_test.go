package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMSE(t *testing.T) {
	got, err := MSE([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-12)
}

func TestRSquared(t *testing.T) {
	actual := []float64{1, 2, 3, 4}

	perfect, err := RSquared(actual, actual)
	require.NoError(t, err)
	assert.Equal(t, 1.0, perfect)

	// Predicting the mean everywhere explains nothing.
	mean, err := RSquared(actual, []float64{2.5, 2.5, 2.5, 2.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, mean, 1e-12)

	// SSE = 6, SST = 5
	worse, err := RSquared(actual, []float64{1, 3, 2, 6})
	require.NoError(t, err)
	assert.InDelta(t, -0.2, worse, 1e-12)
}

func TestRSquared_ConstantActual(t *testing.T) {
	got, err := RSquared([]float64{2, 2, 2}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))

	got, err = RSquared([]float64{2, 2, 2}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, -1))
}

func TestErrors(t *testing.T) {
	_, err := MSE(nil, nil)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = RSquared([]float64{}, []float64{})
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = MSE([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
