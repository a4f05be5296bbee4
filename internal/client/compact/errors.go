package compact

import "errors"

var (
	// ErrUnsupportedOpType операция с неизвестным OpType
	ErrUnsupportedOpType = errors.New("unsupported operation type")

	// ErrInvalidPayload payload операции не является JSON-объектом нужной формы
	ErrInvalidPayload = errors.New("invalid operation payload")
)
