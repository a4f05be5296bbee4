package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// KeyLen - длина ключа AES-256 в байтах
	KeyLen = 32
	// SaltSize - размер соли в байтах
	SaltSize = 16
)

// KDFParams параметры Argon2id. Сохраняются вместе с зашифрованными данными,
// чтобы файл можно было расшифровать после смены значений по умолчанию.
type KDFParams struct {
	Time    uint32 // количество итераций
	Memory  uint32 // объем памяти в KB
	Threads uint8  // количество параллельных потоков
}

// DefaultKDFParams returns the Argon2id parameters used for new backups.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
	}
}

// Validate rejects parameters that argon2 cannot use or that are too weak.
func (p KDFParams) Validate() error {
	if p.Time == 0 || p.Threads == 0 {
		return fmt.Errorf("%w: time and threads must be positive", ErrInvalidParams)
	}
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: memory must be at least 8 KB per thread", ErrInvalidParams)
	}
	return nil
}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey возвращает ключ AES-256, полученный из пароля через Argon2id
func DeriveKey(password string, salt []byte, params KDFParams) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidSalt, SaltSize, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, KeyLen), nil
}
