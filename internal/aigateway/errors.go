package aigateway

import (
	"time"

	"github.com/starford/notegraph/internal/apperr"
)

// Code classifies gateway failures.
type Code string

const (
	CodeNoAPIKey        Code = "NO_API_KEY"
	CodeInvalidAPIKey   Code = "INVALID_API_KEY"
	CodeNetworkError    Code = "NETWORK_ERROR"
	CodeRateLimit       Code = "RATE_LIMIT"
	CodeValidationError Code = "VALIDATION_ERROR"
	CodeUnknown         Code = "UNKNOWN"
)

// Error is returned by every gateway operation. Message is meant for the
// user and says what to do next.
type Error struct {
	Code    Code      `json:"code"`
	Message string    `json:"message"`
	RetryAt time.Time `json:"retryAt,omitzero"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "aigateway: " + string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return "aigateway: " + string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps validation failures onto apperr.ErrInvalidInput.
func (e *Error) Is(target error) bool {
	return e.Code == CodeValidationError && target == apperr.ErrInvalidInput
}

func newError(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

const (
	msgNoAPIKey      = "No API key found. Please add your OpenAI API key in settings."
	msgInvalidAPIKey = "Invalid API key. Please check your key in settings."
	msgNetwork       = "Network error. Please check your internet connection."
	msgUpstreamLimit = "Rate limit exceeded. Please try again later."
)
