package backup

import "errors"

var (
	// ErrPasswordRequired файл зашифрован, а пароль не передан
	ErrPasswordRequired = errors.New("backup is encrypted: password required")

	// ErrUnsupportedVersion файл записан более новой версией формата
	ErrUnsupportedVersion = errors.New("unsupported backup format version")

	// ErrCorrupted заголовок или содержимое файла повреждены
	ErrCorrupted = errors.New("backup file is corrupted")
)
