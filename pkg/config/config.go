package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP API
	HTTPAddr string
	LogLevel string

	// Dataset source: synthetic, csv or clickhouse
	DatasetSource  string
	DatasetCSVPath string
	DatasetPeriods int
	DatasetSeed    int64

	// Model artifact
	ModelPath      string
	PredictWorkers int

	// Sequence length control (mirrors the dashboard slider bounds)
	SequenceLength     int
	SequenceLengthMin  int
	SequenceLengthMax  int
	SequenceLengthStep int

	// ClickHouse Configuration
	ClickHouseEnabled bool
	ClickHouseAddr    string
	ClickHouseDB      string
	ClickHouseUser    string
	ClickHousePass    string

	// MQTT Configuration
	MQTTEnabled             bool
	MQTTBroker              string
	MQTTClientID            string
	MQTTUsername            string
	MQTTPassword            string
	MQTTTopicReport         string
	MQTTTopicSequenceLength string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatasetSource:  getEnv("DATASET_SOURCE", "synthetic"),
		DatasetCSVPath: getEnv("DATASET_CSV_PATH", "./data/wind.csv"),
		DatasetPeriods: getEnvInt("DATASET_PERIODS", 1000),
		DatasetSeed:    int64(getEnvInt("DATASET_SEED", 42)),

		ModelPath:      getEnv("MODEL_PATH", "./model/wind_lstm.json"),
		PredictWorkers: getEnvInt("PREDICT_WORKERS", 1),

		SequenceLength:     getEnvInt("SEQUENCE_LENGTH", 60),
		SequenceLengthMin:  getEnvInt("SEQUENCE_LENGTH_MIN", 10),
		SequenceLengthMax:  getEnvInt("SEQUENCE_LENGTH_MAX", 100),
		SequenceLengthStep: getEnvInt("SEQUENCE_LENGTH_STEP", 5),

		ClickHouseEnabled: getEnvBool("CLICKHOUSE_ENABLED", false),
		ClickHouseAddr:    getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:      getEnv("CLICKHOUSE_DB", "wind"),
		ClickHouseUser:    getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass:    getEnv("CLICKHOUSE_PASS", ""),

		MQTTEnabled:             getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:              getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:            getEnv("MQTT_CLIENT_ID", "wind-forecast"),
		MQTTUsername:            getEnv("MQTT_USERNAME", ""),
		MQTTPassword:            getEnv("MQTT_PASSWORD", ""),
		MQTTTopicReport:         getEnv("MQTT_TOPIC_REPORT", "forecast/{run_id}/report"),
		MQTTTopicSequenceLength: getEnv("MQTT_TOPIC_SEQUENCE_LENGTH", "forecast/control/sequence_length"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}
