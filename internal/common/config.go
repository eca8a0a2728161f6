package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Database  DatabaseConfig  `yaml:"database"`
	OCR       OCRConfig       `yaml:"ocr"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Worker    WorkerConfig    `yaml:"worker"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // postgres | sqlite
	DSN              string        `yaml:"dsn"`
	SQLitePath       string        `yaml:"sqlite_path"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// OCRConfig holds text acquisition and OCR configuration
type OCRConfig struct {
	PdftotextBin    string        `yaml:"pdftotext_bin"`
	OCRMyPDFBin     string        `yaml:"ocrmypdf_bin"`
	Timeout         time.Duration `yaml:"timeout"`
	PreferOCR       bool          `yaml:"prefer_ocr"`
	MinCharsPerPage int           `yaml:"min_chars_per_page"`
	ArtifactDir     string        `yaml:"artifact_dir"`
}

// PipelineConfig holds extraction pipeline tuning
type PipelineConfig struct {
	ManifestDir      string `yaml:"manifest_dir"`
	ChunkMaxChars    int    `yaml:"chunk_max_chars"`
	CitationMaxPages int    `yaml:"citation_max_pages"`
	PrepareWorkers   int    `yaml:"prepare_workers"`
}

// WorkerConfig holds extraction daemon configuration
type WorkerConfig struct {
	HealthAddr   string        `yaml:"health_addr"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// DefaultConfig returns the configuration used when neither a file nor env vars override a value.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:          "postgres",
			SQLitePath:      "Data/grounding.db",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		OCR: OCRConfig{
			PdftotextBin:    "pdftotext",
			OCRMyPDFBin:     "ocrmypdf",
			Timeout:         5 * time.Minute,
			PreferOCR:       true,
			MinCharsPerPage: 40,
			ArtifactDir:     "Data/Processed/ocr",
		},
		Pipeline: PipelineConfig{
			ManifestDir:      "Data/Processed/manifests",
			ChunkMaxChars:    900,
			CitationMaxPages: 3,
			PrepareWorkers:   4,
		},
		Worker: WorkerConfig{
			HealthAddr:   ":8090",
			PollInterval: 5 * time.Second,
			Workers:      2,
			QueueSize:    64,
			RunTimeout:   10 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "course-grounding",
		},
	}
}

// LoadConfig loads configuration from CONFIG_FILE (if set) and then environment variables.
// Environment variables win over the file.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "failed to read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("failed to parse %s", path), err)
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	db := &cfg.Database
	db.Driver = strings.ToLower(getEnv("DB_DRIVER", db.Driver))
	db.DSN = getEnv("DB_URL", db.DSN)
	db.SQLitePath = getEnv("SQLITE_PATH", db.SQLitePath)
	db.MaxConns = getEnvAsInt32("DB_MAX_CONNS", db.MaxConns)
	db.MinConns = getEnvAsInt32("DB_MIN_CONNS", db.MinConns)
	db.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", db.MaxConnLifetime)
	db.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", db.MaxConnIdleTime)
	db.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", db.DialTimeout)
	db.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", db.StatementTimeout)

	o := &cfg.OCR
	o.PdftotextBin = getEnv("PDFTOTEXT_BIN", o.PdftotextBin)
	o.OCRMyPDFBin = getEnv("OCRMYPDF_BIN", o.OCRMyPDFBin)
	o.Timeout = getEnvAsDuration("OCR_TIMEOUT", o.Timeout)
	o.PreferOCR = getEnvAsBool("PREFER_OCR", o.PreferOCR)
	o.MinCharsPerPage = getEnvAsInt("MIN_CHARS_PER_PAGE", o.MinCharsPerPage)
	o.ArtifactDir = getEnv("OCR_ARTIFACT_DIR", o.ArtifactDir)

	p := &cfg.Pipeline
	p.ManifestDir = getEnv("MANIFEST_DIR", p.ManifestDir)
	p.ChunkMaxChars = getEnvAsInt("CHUNK_MAX_CHARS", p.ChunkMaxChars)
	p.CitationMaxPages = getEnvAsInt("CITATION_MAX_PAGES", p.CitationMaxPages)
	p.PrepareWorkers = getEnvAsInt("PREPARE_WORKERS", p.PrepareWorkers)

	w := &cfg.Worker
	w.HealthAddr = getEnv("HEALTH_ADDR", w.HealthAddr)
	w.PollInterval = getEnvAsDuration("POLL_INTERVAL", w.PollInterval)
	w.Workers = getEnvAsInt("WORKERS", w.Workers)
	w.QueueSize = getEnvAsInt("QUEUE_SIZE", w.QueueSize)
	w.RunTimeout = getEnvAsDuration("RUN_TIMEOUT", w.RunTimeout)

	cfg.Telemetry.Enabled = getEnvAsBool("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("database.driver", c.Database.Driver, OneOf("postgres", "sqlite"))
	switch c.Database.Driver {
	case "postgres":
		v.Field("DB_URL", c.Database.DSN, Required)
	case "sqlite":
		v.Field("SQLITE_PATH", c.Database.SQLitePath, Required)
	}
	v.Field("MANIFEST_DIR", c.Pipeline.ManifestDir, Required)
	v.Field("CHUNK_MAX_CHARS", c.Pipeline.ChunkMaxChars, Positive)
	v.Field("CITATION_MAX_PAGES", c.Pipeline.CitationMaxPages, Positive)
	v.Field("PREPARE_WORKERS", c.Pipeline.PrepareWorkers, Positive)
	v.Field("MIN_CHARS_PER_PAGE", c.OCR.MinCharsPerPage, Positive)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
