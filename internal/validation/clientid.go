package validation

import (
	"fmt"
	"regexp"
)

// ClientIDPattern определяет допустимый формат идентификатора клиента.
// Только латинские буквы (a-z, A-Z), цифры (0-9), дефис и нижнее подчеркивание.
// Длина: 8-64 символа
var ClientIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{8,64}$`)

const (
	// MinClientIDLen минимальная длина идентификатора клиента
	MinClientIDLen = 8
	// MaxClientIDLen максимальная длина идентификатора клиента
	MaxClientIDLen = 64
)

// ValidateClientID проверяет, что идентификатор клиента соответствует формату.
// Идентификатор попадает в каждый vector clock, поэтому пустые или слишком
// короткие значения недопустимы.
func ValidateClientID(clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client id cannot be empty")
	}

	if len(clientID) < MinClientIDLen {
		return fmt.Errorf("client id must be at least %d characters long", MinClientIDLen)
	}

	if len(clientID) > MaxClientIDLen {
		return fmt.Errorf("client id must not exceed %d characters", MaxClientIDLen)
	}

	if !ClientIDPattern.MatchString(clientID) {
		return fmt.Errorf("client id can only contain letters (a-z, A-Z), numbers (0-9), '-' and '_'")
	}

	return nil
}
