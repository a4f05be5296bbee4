package crypto

import "errors"

var (
	// ErrInvalidKey ключ шифрования неверной длины
	ErrInvalidKey = errors.New("encryption key must be 32 bytes")

	// ErrDecrypt данные повреждены или ключ не подходит
	ErrDecrypt = errors.New("failed to decrypt: authentication failed or corrupted data")

	// ErrEmptyPassword пароль не задан
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrInvalidSalt соль неверной длины
	ErrInvalidSalt = errors.New("invalid salt size")

	// ErrInvalidParams недопустимые параметры Argon2id
	ErrInvalidParams = errors.New("invalid key derivation parameters")

	// ErrChecksumMismatch контрольная сумма не совпала
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
