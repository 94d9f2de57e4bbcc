package config

import (
	"fmt"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
// Validated in order: catalog → LLM → reaper → server → database, so that
// the immutable in-process catalog (which other components assume is sane)
// is checked before anything that depends on it.
func (v *Validator) ValidateAll() error {
	if err := v.validateCatalog(); err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}
	if err := v.validateLLM(); err != nil {
		return fmt.Errorf("LLM validation failed: %w", err)
	}
	if err := v.validateReaper(); err != nil {
		return fmt.Errorf("reaper validation failed: %w", err)
	}
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := v.cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateCatalog() error {
	if len(catalog.All()) == 0 {
		return fmt.Errorf("action catalog is empty")
	}
	seen := make(map[string]bool)
	for _, a := range catalog.All() {
		if seen[a.Name] {
			return fmt.Errorf("duplicate action %q in catalog", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

func (v *Validator) validateLLM() error {
	l := v.cfg.LLM
	if l.Address == "" {
		return fmt.Errorf("%w: llm.address", ErrMissingRequiredField)
	}
	if l.Model == "" {
		return fmt.Errorf("%w: llm.model", ErrMissingRequiredField)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be in [0,2], got %v", ErrInvalidValue, l.Temperature)
	}
	if l.MaxTokens < 1 {
		return fmt.Errorf("%w: llm.max_tokens must be positive, got %d", ErrInvalidValue, l.MaxTokens)
	}
	if l.AttemptTimeout <= 0 {
		return fmt.Errorf("%w: llm.attempt_timeout must be positive", ErrInvalidValue)
	}
	if l.MaxAttempts < 1 {
		return fmt.Errorf("%w: llm.max_attempts must be at least 1, got %d", ErrInvalidValue, l.MaxAttempts)
	}
	return nil
}

func (v *Validator) validateReaper() error {
	r := v.cfg.Reaper
	if r.SessionExpiry <= 0 {
		return fmt.Errorf("%w: reaper.session_expiry must be positive", ErrInvalidValue)
	}
	if r.SweepInterval <= 0 {
		return fmt.Errorf("%w: reaper.sweep_interval must be positive", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateServer() error {
	if v.cfg.Server.HTTPPort == "" {
		return fmt.Errorf("%w: server.http_port", ErrMissingRequiredField)
	}
	return nil
}
