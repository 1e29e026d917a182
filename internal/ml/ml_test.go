package ml

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wind-forecast/internal/window"
)

// zeroLSTM has all-zero weights: every gate is sigmoid(0) = 0.5 and the
// candidate is tanh(0) = 0, so the hidden state stays 0 and the output is the
// dense bias.
func zeroLSTM(inputSize, units int, denseBias float64) *Artifact {
	zeros := func(r, c int) [][]float64 {
		m := make([][]float64, r)
		for i := range m {
			m[i] = make([]float64, c)
		}
		return m
	}
	return &Artifact{
		Kind:      KindLSTM,
		InputSize: inputSize,
		LSTM: &LSTMWeights{
			Units:           units,
			Kernel:          zeros(inputSize, 4*units),
			RecurrentKernel: zeros(units, 4*units),
			Bias:            make([]float64, 4*units),
		},
		Dense: &DenseWeights{Weights: make([]float64, units), Bias: denseBias},
	}
}

func TestLSTM_ZeroWeights(t *testing.T) {
	m, err := NewLSTM(zeroLSTM(2, 3, 0.25))
	require.NoError(t, err)
	assert.Equal(t, "lstm", m.Name())

	y, err := m.PredictWindow(window.Window{{0.1, 0.2}, {0.3, 0.4}})
	require.NoError(t, err)
	assert.Equal(t, 0.25, y)
}

func TestLSTM_SingleStepByHand(t *testing.T) {
	// One unit, one input. Only the candidate gate sees the input and only the
	// output gate has a bias, so c = 0.5 * tanh(x) and h = sigmoid(b_o) * tanh(c).
	a := zeroLSTM(1, 1, 0)
	a.LSTM.Kernel[0][2] = 1
	a.LSTM.Bias[3] = 2
	a.Dense.Weights[0] = 1

	m, err := NewLSTM(a)
	require.NoError(t, err)

	x := 0.8
	y, err := m.PredictWindow(window.Window{{x}})
	require.NoError(t, err)

	c := 0.5 * math.Tanh(x)
	want := sigmoid(2) * math.Tanh(c)
	assert.InDelta(t, want, y, 1e-12)
}

func TestLSTM_InvalidShapes(t *testing.T) {
	a := zeroLSTM(2, 3, 0)
	a.LSTM.Bias = a.LSTM.Bias[:5]
	_, err := NewLSTM(a)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	a = zeroLSTM(2, 3, 0)
	a.LSTM.Kernel = a.LSTM.Kernel[:1]
	_, err = NewLSTM(a)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	a = zeroLSTM(2, 3, 0)
	a.Dense = nil
	_, err = NewLSTM(a)
	assert.ErrorIs(t, err, ErrInvalidWeights)

	m, err := NewLSTM(zeroLSTM(2, 3, 0))
	require.NoError(t, err)
	_, err = m.PredictWindow(window.Window{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestLinear(t *testing.T) {
	m, err := FromArtifact(&Artifact{
		Kind:         KindLinear,
		InputSize:    2,
		Features:     []string{"temperature", "wind_speed"},
		Coefficients: map[string]float64{"temperature": 0.5, "wind_speed": -2},
		Intercept:    1,
	})
	require.NoError(t, err)

	y, err := m.PredictWindow(window.Window{{100, 100}, {0.4, 0.1}})
	require.NoError(t, err)
	assert.InDelta(t, 1+0.2-0.2, y, 1e-12)

	_, err = FromArtifact(&Artifact{Kind: KindLinear, InputSize: 1, Features: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestFromArtifact_UnknownKind(t *testing.T) {
	_, err := FromArtifact(&Artifact{Kind: "transformer"})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCreateSampleModel_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "sample.json")
	require.NoError(t, CreateSampleModel(path, 2))

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "wind-lstm-sample", m.Name())
	assert.Equal(t, 2, m.InputSize())

	y, err := m.PredictWindow(window.Window{{0.5, 0.5}, {0.2, 0.9}})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(y))
}

func TestLoadModel_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadModel(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadModel(bad)
	assert.Error(t, err)
}

func testWindows(t *testing.T, n, seqLen int) *window.Windows {
	t.Helper()
	table := make([][]float64, n)
	for i := range table {
		table[i] = []float64{float64(i) / float64(n), float64(n-i) / float64(n), 0}
	}
	ws, err := window.Create(table, seqLen)
	require.NoError(t, err)
	return ws
}

func TestPredictor_ParallelMatchesSequential(t *testing.T) {
	m, err := FromArtifact(SampleArtifact(2, 4, 3))
	require.NoError(t, err)
	ws := testWindows(t, 50, 10)

	seq, err := NewPredictor(m, 1, zap.NewNop()).Predict(context.Background(), ws)
	require.NoError(t, err)
	par, err := NewPredictor(m, 8, zap.NewNop()).Predict(context.Background(), ws)
	require.NoError(t, err)

	require.Len(t, seq, 40)
	assert.Equal(t, seq, par)
}

func TestPredictor_EmptyAndMismatch(t *testing.T) {
	m, err := FromArtifact(SampleArtifact(3, 4, 3))
	require.NoError(t, err)
	p := NewPredictor(m, 0, zap.NewNop())

	empty, err := p.Predict(context.Background(), testWindows(t, 5, 10))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = p.Predict(context.Background(), testWindows(t, 20, 5))
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestPredictor_Cancelled(t *testing.T) {
	m, err := FromArtifact(SampleArtifact(2, 4, 3))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewPredictor(m, 2, zap.NewNop()).Predict(ctx, testWindows(t, 20, 5))
	assert.ErrorIs(t, err, context.Canceled)
}
