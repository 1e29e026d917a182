// Package scaling implements per-column min-max scaling of observation tables.
//
// A MinMaxScaler is fitted once over a whole table and then reused for both the
// forward transform and the inverse transform. Every fit is stamped with a fresh
// identity; tables produced by Transform carry that identity so callers can
// verify that the scaler they invert with is the one that produced the data.
package scaling

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNotFitted is returned when the scaler is used before Fit.
	ErrNotFitted = errors.New("scaler is not fitted")
	// ErrEmptyTable is returned when fitting on a table without rows or columns.
	ErrEmptyTable = errors.New("cannot fit scaler on an empty table")
	// ErrColumnMismatch is returned when a row width differs from the fitted width.
	ErrColumnMismatch = errors.New("column count does not match fitted scaler")
)

// Table is a row-major numeric table produced by a fitted scaler.
type Table struct {
	Rows     [][]float64
	ScalerID uuid.UUID
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// MinMaxScaler maps each column independently into [0, 1].
type MinMaxScaler struct {
	id   uuid.UUID
	mins []float64
	maxs []float64
}

// NewMinMaxScaler creates an unfitted scaler.
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// ID returns the identity of the current fit, or uuid.Nil when unfitted.
func (s *MinMaxScaler) ID() uuid.UUID {
	return s.id
}

// Fitted reports whether Fit has completed successfully.
func (s *MinMaxScaler) Fitted() bool {
	return s.id != uuid.Nil
}

// NumColumns returns the fitted column count.
func (s *MinMaxScaler) NumColumns() int {
	return len(s.mins)
}

// Range returns the fitted (min, max) pair for column j.
func (s *MinMaxScaler) Range(j int) (float64, float64) {
	return s.mins[j], s.maxs[j]
}

// Fit computes per-column minimum and maximum over all rows. Refitting replaces
// the identity, so tables from an earlier fit no longer match.
func (s *MinMaxScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrEmptyTable
	}
	width := len(rows[0])

	mins := make([]float64, width)
	maxs := make([]float64, width)
	column := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			if len(row) != width {
				return fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), width, ErrColumnMismatch)
			}
			column[i] = row[j]
		}
		mins[j] = floats.Min(column)
		maxs[j] = floats.Max(column)
	}

	s.mins = mins
	s.maxs = maxs
	s.id = uuid.New()
	return nil
}

// Transform scales rows with the fitted ranges and stamps the result with the
// scaler identity.
func (s *MinMaxScaler) Transform(rows [][]float64) (*Table, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.mins) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), len(s.mins), ErrColumnMismatch)
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.mins[j]) / s.scale(j)
		}
		out[i] = scaled
	}
	return &Table{Rows: out, ScalerID: s.id}, nil
}

// FitTransform fits the scaler and transforms the same rows in one step.
func (s *MinMaxScaler) FitTransform(rows [][]float64) (*Table, error) {
	if err := s.Fit(rows); err != nil {
		return nil, err
	}
	return s.Transform(rows)
}

// InverseTransform maps scaled rows back into original units.
func (s *MinMaxScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.mins) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), len(s.mins), ErrColumnMismatch)
		}
		orig := make([]float64, len(row))
		for j, v := range row {
			orig[j] = v*s.scale(j) + s.mins[j]
		}
		out[i] = orig
	}
	return out, nil
}

// scale is the column span; constant columns use 1 so they map to 0 and back.
func (s *MinMaxScaler) scale(j int) float64 {
	span := s.maxs[j] - s.mins[j]
	if span == 0 {
		return 1
	}
	return span
}
