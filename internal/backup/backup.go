// Package backup reads and writes backup files. A file is either a plain
// JSON document or a container with a binary header followed by the
// document, optionally snappy-compressed and encrypted with a key derived
// from a password.
package backup

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/golang/snappy"

	"github.com/iudanet/opsync/internal/crypto"
)

const (
	// Version текущая версия формата контейнера
	Version byte = 1

	flagCompressed byte = 1 << 0
	flagEncrypted  byte = 1 << 1

	kdfParamsSize = 4 + 4 + 1
)

// Magic первые байты контейнера
var Magic = []byte("OPSB")

// Options настройки записи резервной копии.
type Options struct {
	Password string           // пустой пароль отключает шифрование
	Compress bool             // сжатие snappy
	KDF      crypto.KDFParams // нулевое значение заменяется на crypto.DefaultKDFParams
}

// Encode wraps a JSON document into a container.
func Encode(doc []byte, opts Options) ([]byte, error) {
	var flags byte
	if opts.Compress {
		flags |= flagCompressed
	}
	if opts.Password != "" {
		flags |= flagEncrypted
	}

	header := make([]byte, 0, len(Magic)+2+crypto.SaltSize+kdfParamsSize+crypto.ChecksumSize)
	header = append(header, Magic...)
	header = append(header, Version, flags)

	var key []byte
	if opts.Password != "" {
		params := opts.KDF
		if params == (crypto.KDFParams{}) {
			params = crypto.DefaultKDFParams()
		}
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return nil, err
		}
		key, err = crypto.DeriveKey(opts.Password, salt, params)
		if err != nil {
			return nil, fmt.Errorf("failed to derive backup key: %w", err)
		}
		header = append(header, salt...)
		header = binary.BigEndian.AppendUint32(header, params.Time)
		header = binary.BigEndian.AppendUint32(header, params.Memory)
		header = append(header, params.Threads)
	}
	header = append(header, crypto.Checksum(doc)...)

	body := doc
	if opts.Compress {
		body = snappy.Encode(nil, doc)
	}
	if key != nil {
		encrypted, err := crypto.Encrypt(body, key, header)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt backup: %w", err)
		}
		body = encrypted
	}

	return append(header, body...), nil
}

// IsContainer reports whether data starts with the container magic.
func IsContainer(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// IsEncrypted reports whether data is an encrypted container.
func IsEncrypted(data []byte) bool {
	return IsContainer(data) && len(data) > len(Magic)+1 && data[len(Magic)+1]&flagEncrypted != 0
}

// Decode returns the JSON document stored in data. Data without the
// container magic is returned unchanged.
func Decode(data []byte, password string) ([]byte, error) {
	if !IsContainer(data) {
		return data, nil
	}

	rest := data[len(Magic):]
	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupted)
	}
	version, flags := rest[0], rest[1]
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	rest = rest[2:]

	var key []byte
	if flags&flagEncrypted != 0 {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if len(rest) < crypto.SaltSize+kdfParamsSize {
			return nil, fmt.Errorf("%w: truncated key parameters", ErrCorrupted)
		}
		salt := rest[:crypto.SaltSize]
		params := crypto.KDFParams{
			Time:    binary.BigEndian.Uint32(rest[crypto.SaltSize:]),
			Memory:  binary.BigEndian.Uint32(rest[crypto.SaltSize+4:]),
			Threads: rest[crypto.SaltSize+8],
		}
		var err error
		key, err = crypto.DeriveKey(password, salt, params)
		if err != nil {
			return nil, fmt.Errorf("failed to derive backup key: %w", err)
		}
		rest = rest[crypto.SaltSize+kdfParamsSize:]
	}

	if len(rest) < crypto.ChecksumSize {
		return nil, fmt.Errorf("%w: truncated checksum", ErrCorrupted)
	}
	sum := rest[:crypto.ChecksumSize]
	body := rest[crypto.ChecksumSize:]
	header := data[:len(data)-len(body)]

	if key != nil {
		plain, err := crypto.Decrypt(body, key, header)
		if err != nil {
			return nil, fmt.Errorf("wrong password or %w", err)
		}
		body = plain
	}
	if flags&flagCompressed != 0 {
		plain, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
		body = plain
	}

	if err := crypto.VerifyChecksum(body, sum); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	return body, nil
}

// ReadFile reads and decodes a backup file.
func ReadFile(path, password string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	return Decode(data, password)
}

// WriteFile encodes doc and writes it to path readable only by the owner.
func WriteFile(path string, doc []byte, opts Options) error {
	data, err := Encode(doc, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}
