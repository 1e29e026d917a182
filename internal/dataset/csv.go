package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"wind-forecast/internal/models"
)

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CSVSource reads observations from a CSV file with a header row naming
// timestamp, temperature, wind_speed and total_wind_production.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed source
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string {
	return "csv"
}

func (s *CSVSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return ds, nil
}

// ReadCSV parses an observation table. Row order is kept as given.
func ReadCSV(r io.Reader) (*models.Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithTypes(map[string]series.Type{
			models.ColumnTimestamp:   series.String,
			models.ColumnTemperature: series.Float,
			models.ColumnWindSpeed:   series.Float,
			models.ColumnProduction:  series.Float,
		}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}

	names := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		names[name] = true
	}
	required := append([]string{models.ColumnTimestamp}, models.FeatureColumns...)
	for _, col := range required {
		if !names[col] {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	if df.Nrow() == 0 {
		return nil, ErrNoObservations
	}

	stamps := df.Col(models.ColumnTimestamp).Records()
	temps := df.Col(models.ColumnTemperature).Float()
	winds := df.Col(models.ColumnWindSpeed).Float()
	production := df.Col(models.ColumnProduction).Float()

	observations := make([]models.Observation, df.Nrow())
	for i := range observations {
		ts, err := parseTimestamp(stamps[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		observations[i] = models.Observation{
			Timestamp:   ts,
			Temperature: temps[i],
			WindSpeed:   winds[i],
			Production:  production[i],
		}
	}

	return &models.Dataset{
		Source:       "csv",
		Observations: observations,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// WriteCSV writes the dataset in the format ReadCSV accepts.
func WriteCSV(w io.Writer, ds *models.Dataset) error {
	return Frame(ds.Observations).WriteCSV(w)
}

// Frame converts observations into a dataframe with one column per field.
func Frame(observations []models.Observation) dataframe.DataFrame {
	stamps := make([]string, len(observations))
	temps := make([]float64, len(observations))
	winds := make([]float64, len(observations))
	production := make([]float64, len(observations))
	for i, o := range observations {
		stamps[i] = o.Timestamp.Format(time.RFC3339)
		temps[i] = o.Temperature
		winds[i] = o.WindSpeed
		production[i] = o.Production
	}

	return dataframe.New(
		series.New(stamps, series.String, models.ColumnTimestamp),
		series.New(temps, series.Float, models.ColumnTemperature),
		series.New(winds, series.Float, models.ColumnWindSpeed),
		series.New(production, series.Float, models.ColumnProduction),
	)
}

// Preview returns the first n rows as a dataframe.
func Preview(ds *models.Dataset, n int) dataframe.DataFrame {
	return Frame(ds.Head(n))
}
