// Package config loads the opsync TOML configuration. Values are resolved
// in layers: defaults, then the config file, then environment variables,
// then command line flags.
package config

import "time"

// Config is the top-level configuration parsed from a TOML file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Sync    SyncConfig    `toml:"sync"`
	Archive ArchiveConfig `toml:"archive"`
	Backup  BackupConfig  `toml:"backup"`
	Logging LoggingConfig `toml:"logging"`
}

// StorageConfig selects the local database and how it is opened.
type StorageConfig struct {
	Backend      string `toml:"backend"` // bolt или sqlite
	Path         string `toml:"path"`
	OpenAttempts int    `toml:"open_attempts"`
	OpenBackoff  string `toml:"open_backoff"`     // первая задержка между попытками
	OpenMaxDelay string `toml:"open_max_backoff"` // верхняя граница задержки
	LockTimeout  string `toml:"lock_timeout"`
}

// SyncConfig controls conflict handling.
type SyncConfig struct {
	ConflictCooldown string `toml:"conflict_cooldown"`
	// ConflictPolicy решение по умолчанию для команды resolve: ask, local, remote
	ConflictPolicy string `toml:"conflict_policy"`
}

// ArchiveConfig controls when archived tasks move from the young to the old archive.
type ArchiveConfig struct {
	YoungThresholdDays int `toml:"young_threshold_days"`
}

// BackupConfig controls the format of exported backup files.
type BackupConfig struct {
	Compress bool `toml:"compress"`
	Encrypt  bool `toml:"encrypt"`
}

// LoggingConfig controls log output: level, format and optional rotation.
type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // text или json
	File       string `toml:"file"`   // пусто = stderr
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// CLIOverrides holds values from command line flags. Empty strings mean
// the flag was not given.
type CLIOverrides struct {
	ConfigPath string
	DBPath     string
	Backend    string
	LogLevel   string
}

// Durations returns the parsed storage timings. Validate guarantees they parse.
func (s StorageConfig) Durations() (backoff, maxDelay, lockTimeout time.Duration) {
	backoff, _ = time.ParseDuration(s.OpenBackoff)
	maxDelay, _ = time.ParseDuration(s.OpenMaxDelay)
	lockTimeout, _ = time.ParseDuration(s.LockTimeout)
	return backoff, maxDelay, lockTimeout
}

// Cooldown returns the parsed conflict cooldown.
func (s SyncConfig) Cooldown() time.Duration {
	d, _ := time.ParseDuration(s.ConflictCooldown)
	return d
}

// YoungThreshold returns the archive age threshold.
func (a ArchiveConfig) YoungThreshold() time.Duration {
	return time.Duration(a.YoungThresholdDays) * 24 * time.Hour
}
