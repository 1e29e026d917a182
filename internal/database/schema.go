package database

// SQL schemas for all ClickHouse tables

const (
	// WindObservationsTableSQL creates the wind_observations table
	WindObservationsTableSQL = `
		CREATE TABLE IF NOT EXISTS wind_observations (
			timestamp DateTime64(3),
			temperature Float64,
			wind_speed Float64,
			total_wind_production Float64
		) ENGINE = ReplacingMergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY timestamp
	`

	// ForecastRunsTableSQL creates the forecast_runs table, one row per pipeline run
	ForecastRunsTableSQL = `
		CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id UUID,
			generated_at DateTime64(3),
			sequence_length UInt32,
			model_name String,
			dataset_source String,
			window_count UInt32,
			inference_time_ms Float64,
			mse Nullable(Float64),
			r2 Nullable(Float64)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(generated_at)
		ORDER BY (generated_at, run_id)
	`

	// ForecastPointsTableSQL creates the forecast_points table (actual vs predicted)
	ForecastPointsTableSQL = `
		CREATE TABLE IF NOT EXISTS forecast_points (
			run_id UUID,
			timestamp DateTime64(3),
			actual Float64,
			predicted Float64
		) ENGINE = MergeTree()
		ORDER BY (run_id, timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		WindObservationsTableSQL,
		ForecastRunsTableSQL,
		ForecastPointsTableSQL,
	}
}
