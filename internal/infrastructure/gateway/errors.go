package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akiliki/arruti-app-sub000/internal/domain/production"
)

// Gateway failure kinds. Every kind wraps production.ErrGateway.
var (
	ErrGatewayTransport = fmt.Errorf("%w: transport", production.ErrGateway)
	ErrGatewayRemote    = fmt.Errorf("%w: remote rejected request", production.ErrGateway)
	ErrGatewayMalformed = fmt.Errorf("%w: malformed response", production.ErrGateway)
)

// Errors for gateway configuration
var (
	ErrConfigMissingBaseURL = errors.New("gateway: base URL is required")
	ErrConfigInvalidBaseURL = errors.New("gateway: base URL must be an absolute http(s) URL")
	ErrConfigInvalidRate    = errors.New("gateway: rate limit cannot be negative")
)

// GatewayError is a classified gateway failure carrying the message shown to the user
type GatewayError struct {
	Kind       error
	Action     string
	StatusCode int
	Message    string
	cause      error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%v (%s)", e.Kind, e.Action)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	} else if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.cause}
}

// DisplayMessage implements the message contract read by production.GatewayMessage
func (e *GatewayError) DisplayMessage() string {
	return e.Message
}

func transportError(action string, err error) *GatewayError {
	msg := "The order service could not be reached"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		msg = "The order service did not answer in time"
	}
	return &GatewayError{Kind: ErrGatewayTransport, Action: action, Message: msg, cause: err}
}

func httpStatusError(action string, code int) *GatewayError {
	return &GatewayError{
		Kind:       ErrGatewayTransport,
		Action:     action,
		StatusCode: code,
		Message:    fmt.Sprintf("The order service answered %d %s", code, http.StatusText(code)),
	}
}

func remoteError(action, message string) *GatewayError {
	if message == "" {
		message = "The order service rejected the change"
	}
	return &GatewayError{Kind: ErrGatewayRemote, Action: action, Message: message}
}

func malformedError(action string, err error) *GatewayError {
	return &GatewayError{
		Kind:    ErrGatewayMalformed,
		Action:  action,
		Message: "The order service sent an unexpected response",
		cause:   err,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrGatewayRemote):
		return "remote"
	case errors.Is(err, ErrGatewayMalformed):
		return "malformed"
	default:
		return "transport"
	}
}
