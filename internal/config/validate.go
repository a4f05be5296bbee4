package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const (
	minOpenAttempts = 1
	maxOpenAttempts = 100
	maxCooldown     = time.Hour
)

// Validate checks all configuration values and returns all errors found.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateArchive(&cfg.Archive)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

func validateStorage(s *StorageConfig) []error {
	var errs []error

	if !slices.Contains([]string{BackendBolt, BackendSQLite}, s.Backend) {
		errs = append(errs, fmt.Errorf("%w: storage.backend must be %q or %q, got %q",
			ErrInvalidValue, BackendBolt, BackendSQLite, s.Backend))
	}
	if s.Path == "" {
		errs = append(errs, fmt.Errorf("%w: storage.path must not be empty", ErrInvalidValue))
	}
	if s.OpenAttempts < minOpenAttempts || s.OpenAttempts > maxOpenAttempts {
		errs = append(errs, fmt.Errorf("%w: storage.open_attempts must be between %d and %d, got %d",
			ErrInvalidValue, minOpenAttempts, maxOpenAttempts, s.OpenAttempts))
	}
	errs = append(errs, validateDuration("storage.open_backoff", s.OpenBackoff)...)
	errs = append(errs, validateDuration("storage.open_max_backoff", s.OpenMaxDelay)...)
	errs = append(errs, validateDuration("storage.lock_timeout", s.LockTimeout)...)

	return errs
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	d, err := time.ParseDuration(s.ConflictCooldown)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("%w: sync.conflict_cooldown: %w", ErrInvalidValue, err))
	case d <= 0 || d > maxCooldown:
		errs = append(errs, fmt.Errorf("%w: sync.conflict_cooldown must be positive and at most %s, got %s",
			ErrInvalidValue, maxCooldown, d))
	}

	if !slices.Contains([]string{PolicyAsk, PolicyLocal, PolicyRemote}, s.ConflictPolicy) {
		errs = append(errs, fmt.Errorf("%w: sync.conflict_policy must be ask, local or remote, got %q",
			ErrInvalidValue, s.ConflictPolicy))
	}

	return errs
}

func validateArchive(a *ArchiveConfig) []error {
	if a.YoungThresholdDays < 1 {
		return []error{fmt.Errorf("%w: archive.young_threshold_days must be at least 1, got %d",
			ErrInvalidValue, a.YoungThresholdDays)}
	}
	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if _, err := ParseLevel(l.Level); err != nil {
		errs = append(errs, err)
	}
	if l.Format != "text" && l.Format != "json" {
		errs = append(errs, fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidValue, l.Format))
	}
	if l.File != "" && (l.MaxSizeMB < 1 || l.MaxBackups < 0 || l.MaxAgeDays < 0) {
		errs = append(errs, fmt.Errorf("%w: logging rotation limits must not be negative", ErrInvalidValue))
	}

	return errs
}

func validateDuration(key, value string) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%w: %s: %w", ErrInvalidValue, key, err)}
	}
	if d <= 0 {
		return []error{fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, key, d)}
	}
	return nil
}

// ParseLevel maps a level name from the config to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q",
			ErrInvalidValue, level)
	}
}
