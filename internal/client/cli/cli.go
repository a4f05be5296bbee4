package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/opsync/internal/client/iocli"
	"github.com/iudanet/opsync/internal/client/sync"
	"github.com/iudanet/opsync/internal/config"
)

// EnvBackupPassword переменная окружения с паролем резервной копии
const EnvBackupPassword = "OPSYNC_BACKUP_PASSWORD"

// Passwords источники пароля резервной копии.
type Passwords struct {
	FromFile string
}

// Cli выполняет команды над сервисом синхронизации
type Cli struct {
	io      iocli.IO
	service sync.Service
	cfg     *config.Config
}

func New(io iocli.IO, service sync.Service, cfg *config.Config) *Cli {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Cli{
		io:      io,
		service: service,
		cfg:     cfg,
	}
}

// getPassword retrieves the backup password from various sources with priority:
// 1. Environment variable OPSYNC_BACKUP_PASSWORD
// 2. File specified in passwords.FromFile
// 3. Interactive prompt (fallback), asked twice when confirm is set
func (c *Cli) getPassword(passwords Passwords, confirm bool) (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(EnvBackupPassword); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: Interactive prompt
	password, err := c.io.ReadPassword("Backup password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	if confirm {
		again, err := c.io.ReadPassword("Repeat password: ")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if again != password {
			return "", fmt.Errorf("passwords do not match")
		}
	}

	return password, nil
}

// readJSON декодирует JSON файл в v
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// writeJSON пишет v в файл path или в вывод команды, если path пустой или "-"
func (c *Cli) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := c.io.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
