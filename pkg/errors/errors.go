// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for TITAN.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies TITAN errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeDuplicateName indicates a processor name was already registered.
	CodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// CodeNotFound indicates no processor matched the requested block type.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeUnsupportedInput indicates a processor could not interpret the
	// payload it was handed even though its capability predicate matched.
	CodeUnsupportedInput ErrorCode = "UNSUPPORTED_INPUT"

	// CodeProviderNotConfigured indicates the requested LLM provider has no
	// binding or credential.
	CodeProviderNotConfigured ErrorCode = "PROVIDER_NOT_CONFIGURED"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeProviderResponse indicates an LLM provider returned a failure
	// status or a malformed body.
	CodeProviderResponse ErrorCode = "PROVIDER_RESPONSE"

	// CodeUpstreamProvider indicates a processor failed because its LLM
	// call failed; the cause carries the provider-level code.
	CodeUpstreamProvider ErrorCode = "UPSTREAM_PROVIDER"

	// CodeUnlicensed indicates the active license tier does not include
	// the requested feature.
	CodeUnlicensed ErrorCode = "UNLICENSED"

	// CodeContextLost indicates context was canceled mid-operation.
	CodeContextLost ErrorCode = "CONTEXT_LOST"
)

// TitanError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type TitanError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *TitanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *TitanError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *TitanError) MarshalJSON() ([]byte, error) {
	type Alias TitanError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new TitanError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *TitanError {
	return &TitanError{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Context:     make(map[string]interface{}),
		Attributes:  make(map[string]string),
		Recoverable: recoverableDefault(code),
		StatusCode:  codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *TitanError) WithContext(key string, value interface{}) *TitanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *TitanError) WithAttribute(key, value string) *TitanError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *TitanError) WithRecoverable(recoverable bool) *TitanError {
	e.Recoverable = recoverable
	return e
}

// AsTitanError attempts to convert an error to a TitanError.
// Returns the error as TitanError if it is one, or wraps it otherwise.
func AsTitanError(err error) *TitanError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TitanError); ok {
		return te
	}
	return New(CodeInternal, "wrapped error", err)
}

// Code returns the ErrorCode of err, or CodeInternal for untyped errors.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if te, ok := err.(*TitanError); ok {
		return te.Code
	}
	return CodeInternal
}

// Is reports whether err is a TitanError carrying the given code.
func Is(err error, code ErrorCode) bool {
	te, ok := err.(*TitanError)
	return ok && te.Code == code
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *TitanError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// recoverableDefault encodes the propagation policy: provider-layer errors
// are operational and retryable, registration and capability errors are
// programmer errors and are not.
func recoverableDefault(code ErrorCode) bool {
	switch code {
	case CodeTimeout, CodeProviderResponse, CodeUpstreamProvider:
		return true
	default:
		return false
	}
}

// codeToStatusCode maps error codes to HTTP status codes for callers that
// translate results at a web boundary.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput, CodeUnsupportedInput:
		return 400
	case CodeDuplicateName:
		return 409
	case CodeTimeout:
		return 408
	case CodeUnlicensed:
		return 403
	case CodeProviderNotConfigured:
		return 501
	case CodeProviderResponse, CodeUpstreamProvider:
		return 502
	default:
		return 500
	}
}
