package apperror

// FieldError describes a single failed field-level precondition.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AppError is a custom error type that includes an HTTP status code and,
// for validation failures, per-field details.
type AppError struct {
	Code    int          // HTTP Status Code (e.g., 400, 404)
	Message string       // User-facing error message
	Fields  []FieldError // Optional per-field validation details
	Err     error        // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithFields returns a copy of the error carrying per-field details.
func (e *AppError) WithFields(fields []FieldError) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Fields:  fields,
		Err:     e.Err,
	}
}
