package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wind-forecast/internal/models"
)

type ClickHouseDB struct {
	conn   driver.Conn
	logger *zap.Logger
}

// ClickHouseConfig holds connection settings
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, config ClickHouseConfig, logger *zap.Logger) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Addr},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.Info("Connected to ClickHouse", zap.String("addr", config.Addr))

	db := &ClickHouseDB{conn: conn, logger: logger}

	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.logger.Info("Database schema initialized")
	return nil
}

// CountObservations returns the number of stored observation rows
func (db *ClickHouseDB) CountObservations(ctx context.Context) (uint64, error) {
	var count uint64
	if err := db.conn.QueryRow(ctx, `SELECT count() FROM wind_observations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

// SaveObservations inserts observation rows in one batch
func (db *ClickHouseDB) SaveObservations(ctx context.Context, observations []models.Observation) error {
	batch, err := db.conn.PrepareBatch(ctx, `
		INSERT INTO wind_observations (timestamp, temperature, wind_speed, total_wind_production)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare observation batch: %w", err)
	}

	for _, o := range observations {
		if err := batch.Append(o.Timestamp, o.Temperature, o.WindSpeed, o.Production); err != nil {
			return fmt.Errorf("failed to append observation: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}

	db.logger.Info("Saved observations to ClickHouse", zap.Int("rows", len(observations)))
	return nil
}

// LoadObservations returns the most recent limit observations in
// chronological order. limit <= 0 loads every row.
func (db *ClickHouseDB) LoadObservations(ctx context.Context, limit int) ([]models.Observation, error) {
	query := `
		SELECT timestamp, temperature, wind_speed, total_wind_production
		FROM wind_observations FINAL
		ORDER BY timestamp ASC
	`
	args := []any{}
	if limit > 0 {
		query = `
			SELECT timestamp, temperature, wind_speed, total_wind_production
			FROM (
				SELECT timestamp, temperature, wind_speed, total_wind_production
				FROM wind_observations FINAL
				ORDER BY timestamp DESC
				LIMIT ?
			)
			ORDER BY timestamp ASC
		`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var observations []models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Timestamp, &o.Temperature, &o.WindSpeed, &o.Production); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}

	return observations, nil
}

// SaveForecastReport stores the run summary and its actual/predicted points
func (db *ClickHouseDB) SaveForecastReport(ctx context.Context, report *models.ForecastReport) error {
	runID, err := uuid.Parse(report.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", report.RunID, err)
	}

	err = db.conn.Exec(ctx, `
		INSERT INTO forecast_runs (run_id, generated_at, sequence_length, model_name, dataset_source,
			window_count, inference_time_ms, mse, r2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		report.GeneratedAt,
		uint32(report.SequenceLength),
		report.ModelName,
		report.DatasetSource,
		uint32(report.WindowCount),
		report.InferenceMs,
		report.Metrics.MSE,
		report.Metrics.RSquare,
	)
	if err != nil {
		return fmt.Errorf("failed to insert forecast run: %w", err)
	}

	if len(report.Points) == 0 {
		return nil
	}

	batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO forecast_points (run_id, timestamp, actual, predicted)`)
	if err != nil {
		return fmt.Errorf("failed to prepare forecast point batch: %w", err)
	}
	for _, p := range report.Points {
		if err := batch.Append(runID, p.Timestamp, p.Actual, p.Predicted); err != nil {
			return fmt.Errorf("failed to append forecast point: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert forecast points: %w", err)
	}

	db.logger.Debug("Saved forecast report to ClickHouse",
		zap.String("run_id", report.RunID),
		zap.Int("points", len(report.Points)))
	return nil
}

// RunSummary is a stored forecast run without its points
type RunSummary struct {
	RunID          string    `json:"run_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	SequenceLength uint32    `json:"sequence_length"`
	ModelName      string    `json:"model_name"`
	WindowCount    uint32    `json:"window_count"`
	MSE            *float64  `json:"mse"`
	RSquare        *float64  `json:"r2"`
}

// GetRecentRuns returns the latest forecast runs, newest first
func (db *ClickHouseDB) GetRecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT run_id, generated_at, sequence_length, model_name, window_count, mse, r2
		FROM forecast_runs
		ORDER BY generated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run   RunSummary
			runID uuid.UUID
		)
		if err := rows.Scan(&runID, &run.GeneratedAt, &run.SequenceLength, &run.ModelName,
			&run.WindowCount, &run.MSE, &run.RSquare); err != nil {
			return nil, fmt.Errorf("failed to scan forecast run: %w", err)
		}
		run.RunID = runID.String()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		db.logger.Info("ClickHouse connection closed")
	}
	return nil
}
