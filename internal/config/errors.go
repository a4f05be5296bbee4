package config

import "errors"

var (
	// ErrUnknownKey в файле конфигурации есть неизвестные ключи
	ErrUnknownKey = errors.New("unknown config keys")

	// ErrInvalidValue значение вне допустимого диапазона или формата
	ErrInvalidValue = errors.New("invalid config value")
)
