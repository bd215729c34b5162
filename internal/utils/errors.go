package utils

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrInvalidInput = "INVALID_INPUT"

	// Send pipeline errors
	ErrUploadFailed = "UPLOAD_FAILED" // media transfer failed, draft retained for retry
	ErrEmptyDraft   = "EMPTY_DRAFT"   // gateway mapping only; an empty send is a silent no-op in the core

	// Store errors
	ErrStoreUnavailable = "STORE_UNAVAILABLE"
	ErrConflict         = "CONFLICT" // edit lost a version race and retries were exhausted

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN"
	ErrInvalidToken = "INVALID_TOKEN"

	// Actor communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewUploadError(kind string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrUploadFailed,
		Message: kind + " upload failed",
		Origin:  originalErr,
	}
}

func NewStoreUnavailableError(op string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrStoreUnavailable,
		Message: "document store unavailable during " + op,
		Origin:  originalErr,
	}
}

func NewNotFoundError(what string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: what + " not found",
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound:
		return 404
	case ErrInvalidInput, ErrEmptyDraft:
		return 400
	case ErrUnauthorized, ErrInvalidToken:
		return 401
	case ErrForbidden:
		return 403
	case ErrConflict:
		return 409
	case ErrUploadFailed:
		return 502
	case ErrStoreUnavailable, ErrActorTimeout:
		return 503
	default:
		return 500
	}
}
