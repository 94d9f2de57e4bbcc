package config

import "time"

// ReaperConfig controls the session reaper's sweep behavior
// (spec.md §9 Open Questions: "a reaper process is assumed but not
// specified in detail"; SPEC_FULL.md §C.3 fixes its cadence).
type ReaperConfig struct {
	// SessionExpiry is how long a PENDING session lives before the reaper
	// transitions it to EXPIRED (spec.md §3 "default expiry 1 hour").
	SessionExpiry time.Duration `yaml:"session_expiry"`

	// SweepInterval is how often the reaper loop runs.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultReaperConfig returns the built-in reaper defaults.
func DefaultReaperConfig() *ReaperConfig {
	return &ReaperConfig{
		SessionExpiry: 1 * time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}
