package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"wind-forecast/internal/window"
)

// LSTM is a single-layer LSTM followed by a one-unit dense head. It is
// read-only after construction and safe for concurrent use.
type LSTM struct {
	name      string
	inputSize int
	units     int

	kernel    *mat.Dense // input x 4*units
	recurrent *mat.Dense // units x 4*units
	bias      *mat.VecDense
	dense     *mat.VecDense
	denseBias float64
}

// NewLSTM validates the artifact shapes and builds the layer.
func NewLSTM(a *Artifact) (*LSTM, error) {
	if a.LSTM == nil || a.Dense == nil {
		return nil, fmt.Errorf("lstm artifact needs lstm and dense sections: %w", ErrInvalidWeights)
	}
	units := a.LSTM.Units
	if units <= 0 || a.InputSize <= 0 {
		return nil, fmt.Errorf("units=%d input_size=%d: %w", units, a.InputSize, ErrInvalidWeights)
	}

	kernel, err := denseFrom(a.LSTM.Kernel, a.InputSize, 4*units)
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	recurrent, err := denseFrom(a.LSTM.RecurrentKernel, units, 4*units)
	if err != nil {
		return nil, fmt.Errorf("recurrent_kernel: %w", err)
	}
	if len(a.LSTM.Bias) != 4*units {
		return nil, fmt.Errorf("bias has %d values, expected %d: %w", len(a.LSTM.Bias), 4*units, ErrInvalidWeights)
	}
	if len(a.Dense.Weights) != units {
		return nil, fmt.Errorf("dense has %d weights, expected %d: %w", len(a.Dense.Weights), units, ErrInvalidWeights)
	}

	name := a.Name
	if name == "" {
		name = KindLSTM
	}

	return &LSTM{
		name:      name,
		inputSize: a.InputSize,
		units:     units,
		kernel:    kernel,
		recurrent: recurrent,
		bias:      mat.NewVecDense(4*units, append([]float64(nil), a.LSTM.Bias...)),
		dense:     mat.NewVecDense(units, append([]float64(nil), a.Dense.Weights...)),
		denseBias: a.Dense.Bias,
	}, nil
}

func denseFrom(rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%d rows, expected %d: %w", len(rows), r, ErrInvalidWeights)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), c, ErrInvalidWeights)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func (m *LSTM) Name() string   { return m.name }
func (m *LSTM) InputSize() int { return m.inputSize }

// PredictWindow runs the window through the layer and returns the dense
// output of the final hidden state.
func (m *LSTM) PredictWindow(w window.Window) (float64, error) {
	h := mat.NewVecDense(m.units, nil)
	c := make([]float64, m.units)
	z := mat.NewVecDense(4*m.units, nil)
	rz := mat.NewVecDense(4*m.units, nil)

	for t, row := range w {
		if len(row) != m.inputSize {
			return 0, fmt.Errorf("step %d has %d features, expected %d: %w", t, len(row), m.inputSize, ErrInputSize)
		}
		x := mat.NewVecDense(m.inputSize, append([]float64(nil), row...))

		z.MulVec(m.kernel.T(), x)
		rz.MulVec(m.recurrent.T(), h)
		z.AddVec(z, rz)
		z.AddVec(z, m.bias)

		for j := 0; j < m.units; j++ {
			in := sigmoid(z.AtVec(j))
			forget := sigmoid(z.AtVec(m.units + j))
			cand := math.Tanh(z.AtVec(2*m.units + j))
			out := sigmoid(z.AtVec(3*m.units + j))

			c[j] = forget*c[j] + in*cand
			h.SetVec(j, out*math.Tanh(c[j]))
		}
	}

	return mat.Dot(h, m.dense) + m.denseBias, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
