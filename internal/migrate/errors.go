package migrate

import (
	"fmt"
	"strings"
)

// DataValidationFailedError данные не соответствуют текущей схеме даже после ремонта.
type DataValidationFailedError struct {
	Issues []string
}

func (e *DataValidationFailedError) Error() string {
	return fmt.Sprintf("data validation failed: %s", strings.Join(e.Issues, "; "))
}
