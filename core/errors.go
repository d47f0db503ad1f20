package core

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a missing entity; the API layer maps it to 404.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error { return &NotFoundError{message: msg} }

func (err NotFoundError) Error() string { return err.message }

// DuplicateError reports a uniqueness-invariant violation: an existing
// conflicting pending request, identity or club admin. Maps to 400.
type DuplicateError struct {
	message string
}

func NewDuplicateError(msg string) error { return &DuplicateError{message: msg} }

func (err DuplicateError) Error() string { return err.message }

// AlreadyProcessedError reports an attempted transition on a request that
// already reached a terminal state. Maps to 400.
type AlreadyProcessedError struct {
	message string
}

func NewAlreadyProcessedError(msg string) error { return &AlreadyProcessedError{message: msg} }

func (err AlreadyProcessedError) Error() string { return err.message }

// PermissionError reports a role or club mismatch. Maps to 403.
type PermissionError struct {
	message string
}

func NewPermissionError(msg string) error { return &PermissionError{message: msg} }

func (err PermissionError) Error() string { return err.message }
