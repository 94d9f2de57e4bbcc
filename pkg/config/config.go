// Package config loads MOVI's application configuration: database
// connection settings, the LLM intent-parser backend address, session
// reaper cadence, and HTTP server settings, from a YAML file plus
// environment variable overrides/expansion.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RudraKhare/movi-agent/pkg/database"
)

// LLMConfig configures the gRPC-backed intent-parser backend
// (SPEC_FULL.md §B "grpc+structpb → pkg/llmclient").
type LLMConfig struct {
	Address        string        `yaml:"address"`
	Model          string        `yaml:"model"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
	GinMode  string `yaml:"gin_mode"`
}

// Config is MOVI's top-level application configuration.
type Config struct {
	Database database.Config `yaml:"-"`
	LLM      LLMConfig       `yaml:"llm"`
	Reaper   ReaperConfig    `yaml:"reaper"`
	Server   ServerConfig    `yaml:"server"`
}

// fileConfig is the subset of Config actually sourced from YAML; Database is
// loaded separately from the environment (pkg/database.LoadConfigFromEnv),
// matching the teacher's split between file-based and env-based config.
type fileConfig struct {
	LLM    LLMConfig    `yaml:"llm"`
	Reaper ReaperConfig `yaml:"reaper"`
	Server ServerConfig `yaml:"server"`
}

func defaultFileConfig() fileConfig {
	reaper := DefaultReaperConfig()
	return fileConfig{
		LLM: LLMConfig{
			Address:        "localhost:50051",
			Model:          "gemini-1.5-flash",
			Temperature:    0.2,
			MaxTokens:      1024,
			AttemptTimeout: 30 * time.Second,
			MaxAttempts:    3,
		},
		Reaper: *reaper,
		Server: ServerConfig{
			HTTPPort: "8080",
			GinMode:  "release",
		},
	}
}

// Initialize loads movi.yaml from configDir (if present; defaults apply
// otherwise), expands environment variables in it, loads the database
// section from the environment, and validates the merged result.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	fc := defaultFileConfig()

	path := filepath.Join(configDir, "movi.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, NewLoadError(path, err)
		}
	} else {
		data = ExpandEnv(data)
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
		}
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	cfg := &Config{
		Database: dbCfg,
		LLM:      fc.LLM,
		Reaper:   fc.Reaper,
		Server:   fc.Server,
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	return cfg, nil
}
