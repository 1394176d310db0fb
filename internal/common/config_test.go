package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/constants"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("DB_DRIVER", "")

	cfg := LoadConfig()
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, PolicyDrop, cfg.Import.Policy)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, constants.AsStringSlice(), cfg.Import.Categories)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/bills")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("LLM_TEMPERATURE", "0.4")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("IMPORT_MAX_INPUT_CHARS", "not-a-number")
	t.Setenv("IMPORT_CATEGORIES", "Pets, Other")

	cfg := LoadConfig()
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, int32(7), cfg.Database.MaxConns)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 20000, cfg.Import.MaxInputChars)
	assert.Equal(t, []string{"Pets", "Other"}, cfg.Import.Categories)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			Server:   ServerConfig{HTTPAddr: ":8080"},
			LLM:      LLMConfig{Provider: ProviderOpenAI, APIKey: "k"},
			Import:   ImportConfig{Policy: PolicyDrop, MaxInputChars: 100, Categories: []string{"Other"}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Driver = DriverSQLite }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
		{name: "openai without key", mutate: func(c *Config) { c.LLM.APIKey = "" }},
		{name: "gemini without key", mutate: func(c *Config) { c.LLM.Provider = ProviderGemini }},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "anthropic" }},
		{name: "unknown policy", mutate: func(c *Config) { c.Import.Policy = "lenient" }},
		{name: "zero input limit", mutate: func(c *Config) { c.Import.MaxInputChars = 0 }},
		{name: "no http addr", mutate: func(c *Config) { c.Server.HTTPAddr = "" }},
		{name: "no categories", mutate: func(c *Config) { c.Import.Categories = nil }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
