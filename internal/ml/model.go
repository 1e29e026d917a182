package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"wind-forecast/internal/window"
)

// Supported model kinds in the artifact file
const (
	KindLSTM   = "lstm"
	KindLinear = "linear"
)

var (
	ErrUnknownKind    = errors.New("unknown model kind")
	ErrInvalidWeights = errors.New("invalid model weights")
	ErrInputSize      = errors.New("window feature count does not match model input size")
)

// Model predicts one scaled target value from one window.
type Model interface {
	Name() string
	InputSize() int
	PredictWindow(w window.Window) (float64, error)
}

// Artifact is the JSON file layout of a trained model. LSTM weights use the
// Keras layout: kernel is input_size x 4*units, recurrent_kernel is
// units x 4*units, bias is 4*units, gates ordered i, f, c, o.
type Artifact struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	InputSize int      `json:"input_size"`
	Features  []string `json:"features,omitempty"`

	LSTM  *LSTMWeights  `json:"lstm,omitempty"`
	Dense *DenseWeights `json:"dense,omitempty"`

	// Linear models: Coefficients keyed by feature name applied to the last
	// window row.
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
	Intercept    float64            `json:"intercept,omitempty"`
}

// LSTMWeights holds one LSTM layer
type LSTMWeights struct {
	Units           int         `json:"units"`
	Kernel          [][]float64 `json:"kernel"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel"`
	Bias            []float64   `json:"bias"`
}

// DenseWeights holds the single-output head
type DenseWeights struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// LoadModel reads a model artifact from disk
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}

	return FromArtifact(&artifact)
}

// FromArtifact builds a model from decoded weights.
func FromArtifact(a *Artifact) (Model, error) {
	switch a.Kind {
	case KindLSTM:
		return NewLSTM(a)
	case KindLinear:
		return NewLinear(a)
	default:
		return nil, fmt.Errorf("%q: %w", a.Kind, ErrUnknownKind)
	}
}

// SampleArtifact returns a small LSTM with seeded random weights. It stands in
// for a trained model when no artifact is available.
func SampleArtifact(inputSize, units int, seed int64) *Artifact {
	rng := rand.New(rand.NewSource(seed))
	uniform := func() float64 { return (rng.Float64()*2 - 1) * 0.5 }

	matrix := func(rows, cols int) [][]float64 {
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
			for j := range m[i] {
				m[i][j] = uniform()
			}
		}
		return m
	}

	bias := make([]float64, 4*units)
	for j := units; j < 2*units; j++ {
		bias[j] = 1 // forget gate bias, as Keras unit_forget_bias
	}

	dense := make([]float64, units)
	for j := range dense {
		dense[j] = uniform()
	}

	return &Artifact{
		Name:      "wind-lstm-sample",
		Kind:      KindLSTM,
		InputSize: inputSize,
		LSTM: &LSTMWeights{
			Units:           units,
			Kernel:          matrix(inputSize, 4*units),
			RecurrentKernel: matrix(units, 4*units),
			Bias:            bias,
		},
		Dense: &DenseWeights{Weights: dense, Bias: 0.5},
	}
}

// CreateSampleModel writes a sample model file for demonstration.
// Call this if no model file exists.
func CreateSampleModel(path string, inputSize int) error {
	data, err := json.MarshalIndent(SampleArtifact(inputSize, 8, 1), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}
