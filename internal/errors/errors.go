package errors

import "fmt"

// ErrorCode represents a CaptionGenius error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"        // 400
	ErrNoImage              ErrorCode = "NO_IMAGE"               // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"              // 404
	ErrFileNotFound         ErrorCode = "FILE_NOT_FOUND"         // 404
	ErrGenerationInProgress ErrorCode = "GENERATION_IN_PROGRESS" // 409
	ErrImageTooLarge        ErrorCode = "IMAGE_TOO_LARGE"        // 413
	ErrInternal             ErrorCode = "INTERNAL"               // 500
	ErrGenerationFailed     ErrorCode = "GENERATION_FAILED"      // 502
	ErrGenerationTimeout    ErrorCode = "GENERATION_TIMEOUT"     // 504
)

// GenerationFailedMessage is the only failure text shown to users for a failed generation.
const GenerationFailedMessage = "Something went wrong. Please check your API key or try again."

// CaptionError represents a structured error with code, status, and details.
type CaptionError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is kept for logging and errors.Unwrap; it is never rendered.
	cause error
}

// Error implements the error interface.
func (e *CaptionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CaptionError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CaptionError {
	return &CaptionError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNoImage creates a 400 error for operations that need an image when none is set.
func NewNoImage() *CaptionError {
	return &CaptionError{
		Code:    ErrNoImage,
		Status:  400,
		Message: "no image is loaded",
	}
}

// NewNotFound creates a 404 error for a missing history item, favorite, or caption.
func NewNotFound(kind, id string) *CaptionError {
	return &CaptionError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewFileNotFound creates a 404 error when a file path does not exist.
func NewFileNotFound(path string) *CaptionError {
	return &CaptionError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewGenerationInProgress creates a 409 error when a second generation is triggered.
func NewGenerationInProgress() *CaptionError {
	return &CaptionError{
		Code:    ErrGenerationInProgress,
		Status:  409,
		Message: "a generation is already in progress",
	}
}

// NewImageTooLarge creates a 413 error when an uploaded image exceeds the size limit.
func NewImageTooLarge(max, actual int) *CaptionError {
	return &CaptionError{
		Code:    ErrImageTooLarge,
		Status:  413,
		Message: fmt.Sprintf("image exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewGenerationFailed creates a 502 error for any backend, transport, or parsing failure.
// The cause is retained for logs only; the message is always the generic notice.
func NewGenerationFailed(cause error) *CaptionError {
	return &CaptionError{
		Code:    ErrGenerationFailed,
		Status:  502,
		Message: GenerationFailedMessage,
		cause:   cause,
	}
}

// NewGenerationTimeout creates a 504 error when the backend does not answer in time.
func NewGenerationTimeout(cause error) *CaptionError {
	return &CaptionError{
		Code:    ErrGenerationTimeout,
		Status:  504,
		Message: "the caption service did not respond in time; please try again",
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CaptionError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CaptionError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is a CaptionError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CaptionError); ok {
		return cErr.Code == code
	}
	return false
}
