package models

import "fmt"

// ValidationKind enumerates the reasons an upload can fail validation
type ValidationKind string

const (
	TooLarge           ValidationKind = "too_large"
	UnsupportedFormat  ValidationKind = "unsupported_format"
	CorruptImage       ValidationKind = "corrupt_image"
	InvalidDimensions  ValidationKind = "invalid_dimensions"
	ResolutionExceeded ValidationKind = "resolution_exceeded"
	TooManyImages      ValidationKind = "too_many_images"
)

// QuotaReason enumerates the limits an upload can exceed
type QuotaReason string

const (
	CountLimit   QuotaReason = "count_limit"
	StorageLimit QuotaReason = "storage_limit"
)

// Custom error types for better error handling
type (
	// ValidationError is an expected, user-facing rejection of an upload
	ValidationError struct {
		Kind    ValidationKind `json:"kind"`
		Message string         `json:"message"`
	}

	// QuotaExceededError is an expected, user-facing rejection against
	// a per-user ceiling
	QuotaExceededError struct {
		Reason QuotaReason `json:"reason"`
		Owner  string      `json:"owner"`
	}

	// NotFoundError represents a resource not found error
	NotFoundError struct {
		Resource string `json:"resource"`
		ID       string `json:"id"`
	}

	// ProcessingError is an unexpected decode/encode failure during a
	// transform, distinct from initial validation failure
	ProcessingError struct {
		Operation string `json:"operation"`
		Reason    string `json:"reason"`
	}

	// StorageError represents an I/O failure writing or deleting blobs
	StorageError struct {
		Operation string `json:"operation"`
		Backend   string `json:"backend"`
		Reason    string `json:"reason"`
	}
)

// Error implementations for custom error types
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Message)
}

func (e QuotaExceededError) Error() string {
	switch e.Reason {
	case CountLimit:
		return fmt.Sprintf("image count limit reached for user '%s'", e.Owner)
	case StorageLimit:
		return fmt.Sprintf("storage limit reached for user '%s'", e.Owner)
	}
	return fmt.Sprintf("quota exceeded for user '%s'", e.Owner)
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("processing error during %s: %s", e.Operation, e.Reason)
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage error during %s on %s: %s", e.Operation, e.Backend, e.Reason)
}
