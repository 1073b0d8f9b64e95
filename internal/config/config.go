package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// History backends.
const (
	BackendMemory   = "memory"
	BackendInfluxDB = "influxdb"
)

// Config holds the application's configuration.
type Config struct {
	Port           string
	ImagesDir      string
	MappingsFile   string
	AllowedOrigins []string

	// Synthetic history
	HistoryBackend string
	HistoryDays    int
	SpikesPerWeek  int
	StepMinutes    int
	Seed           int64

	// InfluxDB (required only for the influxdb backend)
	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	// Hosted AI
	OpenAIKey     string
	OpenAIBaseURL string
	AIModel       string
	AITimeout     time.Duration
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}

	cfg := Config{
		Port:           getEnv("PORT", "8081"),
		ImagesDir:      getEnv("IMAGES_DIR", "images"),
		MappingsFile:   getEnv("MAPPINGS_FILE", "mappings.yaml"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		HistoryBackend: getEnv("HISTORY_BACKEND", BackendMemory),
		HistoryDays:    getEnvInt("HISTORY_DAYS", 7),
		SpikesPerWeek:  getEnvInt("HISTORY_SPIKES_PER_WEEK", 3),
		StepMinutes:    getEnvInt("HISTORY_STEP_MINUTES", 1),
		Seed:           int64(getEnvInt("HISTORY_SEED", 0)),

		InfluxDBURL:    os.Getenv("INFLUXDB_URL"),
		InfluxDBToken:  os.Getenv("INFLUXDB_TOKEN"),
		InfluxDBOrg:    os.Getenv("INFLUXDB_ORG"),
		InfluxDBBucket: getEnv("INFLUXDB_BUCKET", "gas_history"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AIModel:       getEnv("SAFETY_AI_MODEL", "gpt-4o-mini"),
		AITimeout:     time.Duration(getEnvInt("AI_TIMEOUT_SEC", 20)) * time.Second,
	}

	switch cfg.HistoryBackend {
	case BackendMemory:
	case BackendInfluxDB:
		if cfg.InfluxDBURL == "" || cfg.InfluxDBToken == "" || cfg.InfluxDBOrg == "" {
			return Config{}, fmt.Errorf("InfluxDB configuration is incomplete. Please set INFLUXDB_URL, INFLUXDB_TOKEN, and INFLUXDB_ORG environment variables")
		}
	default:
		return Config{}, fmt.Errorf("unknown HISTORY_BACKEND %q (want %q or %q)", cfg.HistoryBackend, BackendMemory, BackendInfluxDB)
	}

	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 7
	}
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = 1
	}
	if cfg.SpikesPerWeek < 0 {
		cfg.SpikesPerWeek = 0
	}

	return cfg, nil
}

// AIAvailable reports whether the hosted AI path can be attempted at all.
func (c Config) AIAvailable() bool {
	return c.OpenAIKey != ""
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

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
