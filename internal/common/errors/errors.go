// Package errors provides the tagged failure values exchanged between planner
// stages and the job workers that expose them.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode tags a failure so callers can select a fallback without
// inspecting messages.
type ErrorCode string

const (
	ErrCodeProviderExhausted           ErrorCode = "PROVIDER_EXHAUSTED"
	ErrCodeProviderCallFailed          ErrorCode = "PROVIDER_CALL_FAILED"
	ErrCodeMalformedProviderResponse   ErrorCode = "MALFORMED_PROVIDER_RESPONSE"
	ErrCodeNoVerifiedPlaces            ErrorCode = "NO_VERIFIED_PLACES"
	ErrCodeCandidateVerificationFailed ErrorCode = "CANDIDATE_VERIFICATION_FAILED"
	ErrCodeRoutingFailed               ErrorCode = "ROUTING_FAILED"
	ErrCodePricingProviderFailed       ErrorCode = "PRICING_PROVIDER_FAILED"
	ErrCodePricingUnconfigured         ErrorCode = "PRICING_UNCONFIGURED"
	ErrCodeContextUnavailable          ErrorCode = "CONTEXT_UNAVAILABLE"
	ErrCodeInvalidTripRequest          ErrorCode = "INVALID_TRIP_REQUEST"
	ErrCodeInternal                    ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewProviderExhaustedError reports that every configured text-generation
// provider failed; last is the final failure observed.
func NewProviderExhaustedError(attempted int, last error) *StandardError {
	msg := fmt.Sprintf("all %d generative providers failed", attempted)
	if attempted == 0 {
		msg = "no generative provider configured"
	}
	return newError(ErrCodeProviderExhausted, msg, last, false).
		WithMetadata("providersAttempted", attempted)
}

// NewProviderCallFailedError wraps a transport or API failure of one provider.
func NewProviderCallFailedError(provider string, err error) *StandardError {
	return newError(ErrCodeProviderCallFailed, fmt.Sprintf("provider '%s' call failed", provider), err, true).
		WithMetadata("provider", provider)
}

// NewMalformedProviderResponseError reports a reply that is not JSON matching
// the candidate contract. It is retried like any other provider failure.
func NewMalformedProviderResponseError(provider string, err error) *StandardError {
	return newError(ErrCodeMalformedProviderResponse, fmt.Sprintf("provider '%s' returned a malformed response", provider), err, true).
		WithMetadata("provider", provider)
}

func NewNoVerifiedPlacesError(city string, candidates int) *StandardError {
	return newError(ErrCodeNoVerifiedPlaces, "verification returned no places", nil, false).
		WithMetadata("city", city).
		WithMetadata("candidates", candidates)
}

func NewCandidateVerificationFailedError(candidate string, err error) *StandardError {
	return newError(ErrCodeCandidateVerificationFailed, fmt.Sprintf("verification of '%s' failed", candidate), err, false).
		WithMetadata("candidate", candidate)
}

func NewRoutingFailedError(err error) *StandardError {
	return newError(ErrCodeRoutingFailed, "transit lookup failed", err, false)
}

func NewPricingProviderFailedError(err error) *StandardError {
	return newError(ErrCodePricingProviderFailed, "pricing provider returned no usable price", err, false)
}

func NewPricingUnconfiguredError() *StandardError {
	return newError(ErrCodePricingUnconfigured, "pricing provider is not configured", nil, false)
}

func NewContextUnavailableError(backend string, err error) *StandardError {
	return newError(ErrCodeContextUnavailable, fmt.Sprintf("context backend '%s' unavailable", backend), err, false).
		WithMetadata("backend", backend)
}

// NewInvalidTripRequestError is the only failure PlanTrip surfaces to callers.
func NewInvalidTripRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTripRequest,
		Message:   "Invalid trip request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Matching helpers
// ==========================

// CodeOf returns the code carried by err, or ErrCodeInternal when err is not
// a StandardError.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// GetRetryCount returns how many times a job worker should retry a failure
// with this code before giving up.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderCallFailed,
		ErrCodeMalformedProviderResponse:
		return 2

	case ErrCodeInternal:
		return 1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the pipeline stage a code belongs to.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROVIDER_"):
		if strings.HasPrefix(codeStr, "PRICING") {
			return "BUDGET"
		}
		return "CANDIDATES"
	case strings.Contains(codeStr, "VERIF"):
		return "VERIFICATION"
	case strings.Contains(codeStr, "ROUTING"):
		return "ROUTING"
	case strings.Contains(codeStr, "PRICING"):
		return "BUDGET"
	case strings.Contains(codeStr, "CONTEXT"):
		return "CONTEXT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
