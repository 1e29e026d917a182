package models

import "time"

// Column names of the observation table, target last.
const (
	ColumnTimestamp   = "timestamp"
	ColumnTemperature = "temperature"
	ColumnWindSpeed   = "wind_speed"
	ColumnProduction  = "total_wind_production"
)

// FeatureColumns lists the numeric columns in table order. The last entry is the
// prediction target.
var FeatureColumns = []string{ColumnTemperature, ColumnWindSpeed, ColumnProduction}

// Observation represents one hourly row of the wind dataset
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`           // Celsius
	WindSpeed   float64   `json:"wind_speed"`            // m/s
	Production  float64   `json:"total_wind_production"` // normalized production units
}

// Values returns the numeric columns in FeatureColumns order.
func (o Observation) Values() []float64 {
	return []float64{o.Temperature, o.WindSpeed, o.Production}
}

// Dataset is a chronologically ordered observation table
type Dataset struct {
	Source       string        `json:"source"`
	Observations []Observation `json:"observations"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Observations)
}

// Matrix returns the numeric table, one row per observation, target column last.
func (d *Dataset) Matrix() [][]float64 {
	rows := make([][]float64, len(d.Observations))
	for i, o := range d.Observations {
		rows[i] = o.Values()
	}
	return rows
}

// Head returns the first n observations.
func (d *Dataset) Head(n int) []Observation {
	if n > len(d.Observations) {
		n = len(d.Observations)
	}
	if n < 0 {
		n = 0
	}
	return d.Observations[:n]
}
