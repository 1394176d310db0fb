package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/bills-tracker/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Import   ImportConfig
	Events   EventsConfig
	Export   ExportConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite | memory
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider     string // openai | gemini
	Model        string
	APIKey       string
	BaseURL      string
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
}

// ImportConfig controls the extraction pipeline and reconciliation sessions.
type ImportConfig struct {
	MaxInputChars int
	Policy        string // drop | strict
	SessionTTL    time.Duration
	Categories    []string // closed category vocabulary shared by extraction and bill validation
}

// EventsConfig configures the optional bill-event publisher.
type EventsConfig struct {
	AMQPURL     string
	Exchange    string
	QueueSize   int
	Concurrency int
}

// ExportConfig configures the optional Google Sheets export.
type ExportConfig struct {
	SheetsCredentialsFile string
	SpreadsheetID         string
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	PolicyDrop   = "drop"
	PolicyStrict = "strict"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", DriverSQLite),
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("SQLITE_PATH", "./data/bills.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:        getEnv("GRPC_ADDR", ":9090"),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:        getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			APIKey:       getEnv("LLM_API_KEY", os.Getenv("GROQ_API_KEY")),
			BaseURL:      getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			MaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Import: ImportConfig{
			MaxInputChars: getEnvAsInt("IMPORT_MAX_INPUT_CHARS", 20000),
			Policy:        getEnv("IMPORT_POLICY", PolicyDrop),
			SessionTTL:    getEnvAsDuration("IMPORT_SESSION_TTL", 30*time.Minute),
			Categories:    getEnvAsList("IMPORT_CATEGORIES", constants.AsStringSlice()),
		},
		Events: EventsConfig{
			AMQPURL:     getEnv("AMQP_URL", ""),
			Exchange:    getEnv("AMQP_EXCHANGE", "bills"),
			QueueSize:   getEnvAsInt("EVENTS_QUEUE_SIZE", 256),
			Concurrency: getEnvAsInt("EVENTS_CONCURRENCY", 2),
		},
		Export: ExportConfig{
			SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
			SpreadsheetID:         getEnv("SHEETS_SPREADSHEET_ID", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres driver", ErrInvalidInput)
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return NewAppError("CONFIG_ERROR", "SQLITE_PATH is required for the sqlite driver", ErrInvalidInput)
		}
	case DriverMemory:
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres, sqlite or memory", ErrInvalidInput)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "LLM_API_KEY is required", ErrInvalidInput)
		}
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be openai or gemini", ErrInvalidInput)
	}

	if c.Import.Policy != PolicyDrop && c.Import.Policy != PolicyStrict {
		return NewAppError("CONFIG_ERROR", "IMPORT_POLICY must be drop or strict", ErrInvalidInput)
	}
	if c.Import.MaxInputChars <= 0 {
		return NewAppError("CONFIG_ERROR", "IMPORT_MAX_INPUT_CHARS must be positive", ErrInvalidInput)
	}
	if len(c.Import.Categories) == 0 {
		return NewAppError("CONFIG_ERROR", "IMPORT_CATEGORIES must list at least one category", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
