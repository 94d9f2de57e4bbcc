package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RudraKhare/movi-agent/pkg/database"
)

func validConfig() *Config {
	return &Config{
		Database: database.Config{
			Host: "localhost", Port: 5432, User: "movi", Password: "movi",
			Database: "movi", SSLMode: "disable", MaxOpenConns: 10, MaxIdleConns: 5,
		},
		LLM: LLMConfig{
			Address: "localhost:50051", Model: "gemini-1.5-flash",
			Temperature: 0.2, MaxTokens: 1024,
			AttemptTimeout: 30 * time.Second, MaxAttempts: 3,
		},
		Reaper: *DefaultReaperConfig(),
		Server: ServerConfig{HTTPPort: "8080", GinMode: "release"},
	}
}

func TestValidateAllAcceptsValidConfig(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateLLMRejectsMissingAddress(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Address = ""
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidateLLMRejectsOutOfRangeTemperature(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Temperature = 5
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateReaperRejectsZeroInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Reaper.SweepInterval = 0
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidateServerRejectsEmptyPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.HTTPPort = ""
	assert.Error(t, NewValidator(cfg).ValidateAll())
}

func TestValidateDatabaseDelegatesToDatabaseConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = ""
	assert.Error(t, NewValidator(cfg).ValidateAll())
}
