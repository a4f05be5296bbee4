package config

import (
	"os"
	"path/filepath"
)

const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"

	PolicyAsk    = "ask"
	PolicyLocal  = "local"
	PolicyRemote = "remote"

	appDirName = "opsync"
)

const (
	defaultOpenAttempts       = 5
	defaultOpenBackoff        = "50ms"
	defaultOpenMaxDelay       = "2s"
	defaultLockTimeout        = "1s"
	defaultConflictCooldown   = "30s"
	defaultYoungThresholdDays = 21
	defaultLogLevel           = "info"
	defaultLogFormat          = "text"
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 3
	defaultLogMaxAgeDays      = 28
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:      BackendBolt,
			Path:         DefaultDBPath(),
			OpenAttempts: defaultOpenAttempts,
			OpenBackoff:  defaultOpenBackoff,
			OpenMaxDelay: defaultOpenMaxDelay,
			LockTimeout:  defaultLockTimeout,
		},
		Sync: SyncConfig{
			ConflictCooldown: defaultConflictCooldown,
			ConflictPolicy:   PolicyAsk,
		},
		Archive: ArchiveConfig{
			YoungThresholdDays: defaultYoungThresholdDays,
		},
		Backup: BackupConfig{
			Compress: true,
		},
		Logging: LoggingConfig{
			Level:      defaultLogLevel,
			Format:     defaultLogFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}

// DefaultConfigPath returns the config file location under the user config directory.
func DefaultConfigPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

// DefaultDBPath returns the database location under the user config directory.
func DefaultDBPath() string {
	return filepath.Join(baseDir(), "opsync.db")
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		// без HOME работаем в текущем каталоге
		return appDirName
	}
	return filepath.Join(dir, appDirName)
}
