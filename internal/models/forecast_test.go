package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastPoint_NonFiniteEncodesAsNull(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 0, 0, 0, time.UTC)
	report := ForecastReport{
		RunID: "run",
		Points: []ForecastPoint{
			{Timestamp: ts, Actual: math.NaN(), Predicted: 1.5},
			{Timestamp: ts, Actual: 2.5, Predicted: math.Inf(1)},
		},
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var raw struct {
		Points []map[string]any `json:"points"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Points, 2)
	assert.Nil(t, raw.Points[0]["actual"])
	assert.Equal(t, 1.5, raw.Points[0]["predicted"])
	assert.Equal(t, 2.5, raw.Points[1]["actual"])
	assert.Nil(t, raw.Points[1]["predicted"])
	assert.Contains(t, raw.Points[1], "predicted")

	var decoded ForecastReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsNaN(decoded.Points[0].Actual))
	assert.Equal(t, 1.5, decoded.Points[0].Predicted)
	assert.True(t, math.IsNaN(decoded.Points[1].Predicted))
	assert.True(t, decoded.Points[0].Timestamp.Equal(ts))
}
