// Package window cuts scaled time-series tables into fixed-length overlapping
// windows for sequence-model inference, and reconstructs model outputs back
// into original units.
package window

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"wind-forecast/internal/scaling"
)

var (
	// ErrInvalidSequenceLength is returned for a non-positive sequence length.
	ErrInvalidSequenceLength = errors.New("sequence length must be positive")
	// ErrRaggedTable is returned when table rows differ in width.
	ErrRaggedTable = errors.New("table rows have differing column counts")
	// ErrScalerMismatch is returned when reconstruction uses a scaler other than
	// the one that produced the windowed table.
	ErrScalerMismatch = errors.New("scaler does not match the windowed table")
	// ErrPredictionCount is returned when predictions and windows differ in number.
	ErrPredictionCount = errors.New("prediction count does not match window count")
)

// Window is one model input sample: SequenceLength rows of feature columns.
type Window [][]float64

// LastRow returns the final time step of the window.
func (w Window) LastRow() []float64 {
	if len(w) == 0 {
		return nil
	}
	return w[len(w)-1]
}

// Windows is an ordered batch of windows cut from one table.
type Windows struct {
	Items          []Window
	SequenceLength int
	NumFeatures    int
	ScalerID       uuid.UUID
}

// Len returns the number of windows.
func (ws *Windows) Len() int {
	return len(ws.Items)
}

// Shape returns (windows, rows per window, columns per window).
func (ws *Windows) Shape() (int, int, int) {
	return len(ws.Items), ws.SequenceLength, ws.NumFeatures
}

// Create slides a window of seqLen rows over table one step at a time. Window i
// holds rows [i, i+seqLen) and every column except the last (the target).
// When seqLen >= len(table) the result is empty.
func Create(table [][]float64, seqLen int) (*Windows, error) {
	if seqLen <= 0 {
		return nil, fmt.Errorf("got %d: %w", seqLen, ErrInvalidSequenceLength)
	}

	width := 0
	if len(table) > 0 {
		width = len(table[0])
	}
	for i, row := range table {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), width, ErrRaggedTable)
		}
	}

	features := 0
	if width > 0 {
		features = width - 1
	}

	count := len(table) - seqLen
	if count < 0 {
		count = 0
	}

	items := make([]Window, count)
	for i := 0; i < count; i++ {
		w := make(Window, seqLen)
		for r := 0; r < seqLen; r++ {
			row := make([]float64, features)
			copy(row, table[i+r][:features])
			w[r] = row
		}
		items[i] = w
	}

	return &Windows{
		Items:          items,
		SequenceLength: seqLen,
		NumFeatures:    features,
	}, nil
}

// FromTable windows a scaled table and records which scaler produced it.
func FromTable(t *scaling.Table, seqLen int) (*Windows, error) {
	ws, err := Create(t.Rows, seqLen)
	if err != nil {
		return nil, err
	}
	ws.ScalerID = t.ScalerID
	return ws, nil
}

// Targets returns the target column value following each window, that is
// table[i+seqLen][last] for every window start i.
func Targets(table [][]float64, seqLen int) ([]float64, error) {
	if seqLen <= 0 {
		return nil, fmt.Errorf("got %d: %w", seqLen, ErrInvalidSequenceLength)
	}
	if seqLen >= len(table) {
		return []float64{}, nil
	}

	out := make([]float64, 0, len(table)-seqLen)
	for _, row := range table[seqLen:] {
		if len(row) == 0 {
			return nil, ErrRaggedTable
		}
		out = append(out, row[len(row)-1])
	}
	return out, nil
}

// Reconstruct appends each prediction to the last row of its window and maps
// the combined rows back to original units with s. The predicted target is the
// last column of every returned row.
func Reconstruct(s *scaling.MinMaxScaler, ws *Windows, predictions []float64) ([][]float64, error) {
	if !s.Fitted() || ws.ScalerID != s.ID() {
		return nil, ErrScalerMismatch
	}
	if len(predictions) != ws.Len() {
		return nil, fmt.Errorf("%d predictions for %d windows: %w", len(predictions), ws.Len(), ErrPredictionCount)
	}
	if ws.Len() == 0 {
		return [][]float64{}, nil
	}

	rows := make([][]float64, ws.Len())
	for i, w := range ws.Items {
		last := w.LastRow()
		row := make([]float64, 0, len(last)+1)
		row = append(row, last...)
		rows[i] = append(row, predictions[i])
	}

	out, err := s.InverseTransform(rows)
	if err != nil {
		return nil, fmt.Errorf("inverse transform: %w", err)
	}
	return out, nil
}

// PredictedTargets extracts the last column from reconstructed rows.
func PredictedTargets(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[len(row)-1]
	}
	return out
}
