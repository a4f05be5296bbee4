package sync

import "errors"

var (
	// ErrNoTransport сервис создан без транспорта, сетевая синхронизация недоступна
	ErrNoTransport = errors.New("no transport configured")

	// ErrUnsupportedLocalChange локальное изменение с недопустимым типом операции
	ErrUnsupportedLocalChange = errors.New("unsupported local change")

	// ErrEntityNotFound сущность отсутствует в текущем состоянии
	ErrEntityNotFound = errors.New("entity not found")
)
