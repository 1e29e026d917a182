package scaling

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() [][]float64 {
	return [][]float64{
		{10, -5, 0.25},
		{20, 0, 0.5},
		{15, 5, 1.0},
		{12, 2.5, 0.75},
	}
}

func TestMinMaxScaler_TransformIntoUnitRange(t *testing.T) {
	s := NewMinMaxScaler()
	table, err := s.FitTransform(sampleRows())
	require.NoError(t, err)

	assert.Equal(t, s.ID(), table.ScalerID)
	assert.Equal(t, []float64{0, 0, 0}, table.Rows[0])
	assert.Equal(t, []float64{1, 0.5, 1.0 / 3}, table.Rows[1])
	for _, row := range table.Rows {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestMinMaxScaler_RoundTrip(t *testing.T) {
	rows := sampleRows()
	s := NewMinMaxScaler()
	table, err := s.FitTransform(rows)
	require.NoError(t, err)

	back, err := s.InverseTransform(table.Rows)
	require.NoError(t, err)
	for i := range rows {
		for j := range rows[i] {
			assert.InDelta(t, rows[i][j], back[i][j], 1e-9)
		}
	}
}

func TestMinMaxScaler_ConstantColumn(t *testing.T) {
	rows := [][]float64{{3, 1}, {3, 2}, {3, 4}}
	s := NewMinMaxScaler()
	table, err := s.FitTransform(rows)
	require.NoError(t, err)

	for _, row := range table.Rows {
		assert.Equal(t, 0.0, row[0])
	}
	back, err := s.InverseTransform(table.Rows)
	require.NoError(t, err)
	assert.Equal(t, 3.0, back[2][0])
}

func TestMinMaxScaler_NotFitted(t *testing.T) {
	s := NewMinMaxScaler()
	assert.False(t, s.Fitted())
	assert.Equal(t, uuid.Nil, s.ID())

	_, err := s.Transform(sampleRows())
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = s.InverseTransform(sampleRows())
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestMinMaxScaler_Errors(t *testing.T) {
	s := NewMinMaxScaler()
	assert.ErrorIs(t, s.Fit(nil), ErrEmptyTable)
	assert.ErrorIs(t, s.Fit([][]float64{{1, 2}, {3}}), ErrColumnMismatch)

	require.NoError(t, s.Fit(sampleRows()))
	_, err := s.Transform([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestMinMaxScaler_RefitChangesIdentity(t *testing.T) {
	s := NewMinMaxScaler()
	require.NoError(t, s.Fit(sampleRows()))
	first := s.ID()
	require.NoError(t, s.Fit(sampleRows()))
	assert.NotEqual(t, first, s.ID())
}

func TestMinMaxScaler_NonFinitePassThrough(t *testing.T) {
	s := NewMinMaxScaler()
	require.NoError(t, s.Fit([][]float64{{0}, {10}}))

	table, err := s.Transform([][]float64{{math.NaN()}, {math.Inf(1)}})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(table.Rows[0][0]))
	assert.True(t, math.IsInf(table.Rows[1][0], 1))
}
