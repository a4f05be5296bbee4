package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig   = "OPSYNC_CONFIG"
	EnvDB       = "OPSYNC_DB"
	EnvLogLevel = "OPSYNC_LOG_LEVEL"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // OPSYNC_CONFIG: путь к файлу конфигурации
	DBPath     string // OPSYNC_DB: путь к базе данных
	LogLevel   string // OPSYNC_LOG_LEVEL: уровень логирования
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		DBPath:     os.Getenv(EnvDB),
		LogLevel:   os.Getenv(EnvLogLevel),
	}
}
