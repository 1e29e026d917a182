package ml

import (
	"fmt"

	"wind-forecast/internal/window"
)

// Linear represents a simple linear regression over the last window row
type Linear struct {
	name         string
	coefficients []float64
	intercept    float64
}

// NewLinear orders the named coefficients by the artifact feature list.
func NewLinear(a *Artifact) (*Linear, error) {
	if len(a.Features) == 0 || len(a.Features) != a.InputSize {
		return nil, fmt.Errorf("linear model needs %d feature names, got %d: %w", a.InputSize, len(a.Features), ErrInvalidWeights)
	}

	coefficients := make([]float64, len(a.Features))
	for i, feature := range a.Features {
		coef, ok := a.Coefficients[feature]
		if !ok {
			return nil, fmt.Errorf("missing coefficient for %q: %w", feature, ErrInvalidWeights)
		}
		coefficients[i] = coef
	}

	name := a.Name
	if name == "" {
		name = KindLinear
	}
	return &Linear{name: name, coefficients: coefficients, intercept: a.Intercept}, nil
}

func (m *Linear) Name() string   { return m.name }
func (m *Linear) InputSize() int { return len(m.coefficients) }

func (m *Linear) PredictWindow(w window.Window) (float64, error) {
	last := w.LastRow()
	if len(last) != len(m.coefficients) {
		return 0, fmt.Errorf("last row has %d features, expected %d: %w", len(last), len(m.coefficients), ErrInputSize)
	}

	score := m.intercept
	for i, coef := range m.coefficients {
		score += coef * last[i]
	}
	return score, nil
}
