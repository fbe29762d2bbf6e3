package upsert

import "fmt"

// ValidationError reports invalid input to BulkUpdateOrCreate. It is always
// raised before any store access, so a validation failure leaves no partial
// writes behind.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
