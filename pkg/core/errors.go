// Package core holds the domain error model shared by the dialog engine and
// the HTTP gateway.
package core

import (
	"fmt"
)

// Error is the canonical error carried across component boundaries.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	// ProviderError carries the raw upstream error payload, if any.
	ProviderError any `json:"provider_error,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrAPI            ErrorType = "api_error"

	// ErrGeneration marks a reply-generation backend failure or timeout.
	// Recoverable: the dialog continues with a fallback line.
	ErrGeneration ErrorType = "generation_error"

	// ErrSynthesis marks a speech-synthesis backend failure or timeout.
	// Not recoverable: the call turn terminates with a spoken apology.
	ErrSynthesis ErrorType = "synthesis_error"

	// ErrStorage marks an artifact write failure. Treated like ErrSynthesis,
	// since an unreachable artifact is equivalent to no audio.
	ErrStorage ErrorType = "storage_error"

	// ErrUnknownSession marks an append against a call that was never
	// registered. A contract violation, not an operational condition.
	ErrUnknownSession ErrorType = "unknown_session"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
	}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{
		Type:    ErrInvalidRequest,
		Message: message,
		Param:   param,
	}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{
		Type:    ErrNotFound,
		Message: message,
	}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{
		Type:    ErrAPI,
		Message: message,
	}
}

// NewGenerationError creates a reply-generation gateway error.
func NewGenerationError(provider string, underlying error) *Error {
	return &Error{
		Type:          ErrGeneration,
		Message:       fmt.Sprintf("%s: %v", provider, underlying),
		ProviderError: underlying.Error(),
	}
}

// NewSynthesisError creates a speech-synthesis gateway error.
func NewSynthesisError(provider string, underlying error) *Error {
	return &Error{
		Type:          ErrSynthesis,
		Message:       fmt.Sprintf("%s: %v", provider, underlying),
		ProviderError: underlying.Error(),
	}
}

// NewStorageError creates an artifact store error.
func NewStorageError(underlying error) *Error {
	return &Error{
		Type:    ErrStorage,
		Message: underlying.Error(),
	}
}

// IsTerminal reports whether an error of this type ends the call turn
// instead of continuing with a fallback line.
func (e *Error) IsTerminal() bool {
	switch e.Type {
	case ErrSynthesis, ErrStorage:
		return true
	default:
		return false
	}
}
