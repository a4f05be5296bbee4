package meta

import (
	"errors"
	"fmt"
)

// ErrMetaNotReady возвращается, если контроллер еще не загрузил мета-модель.
// Вызывающий код должен дождаться Init, а не повторять вызов вслепую.
var ErrMetaNotReady = errors.New("meta model is not loaded yet")

// ClientIDInvalidError сохраненный идентификатор клиента не прошел проверку формата.
type ClientIDInvalidError struct {
	Err      error
	ClientID string
}

func (e *ClientIDInvalidError) Error() string {
	return fmt.Sprintf("invalid client id %q: %v", e.ClientID, e.Err)
}

func (e *ClientIDInvalidError) Unwrap() error {
	return e.Err
}
