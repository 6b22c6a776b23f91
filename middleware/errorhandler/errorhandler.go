package errorhandler

import (
	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/middleware"
)

// ErrorHandlerFunc handles errors
type ErrorHandlerFunc func(error) error

// ErrorHandler handles errors in the middleware chain
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler creates an error handling middleware
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// NewAgentErrorWrapper returns a handler that reports every run failure as an
// *errors.AgentInvocationError.
func NewAgentErrorWrapper() *ErrorHandler {
	return NewErrorHandler(WrapAgentError)
}

// WrapAgentError wraps err in an AgentInvocationError unless it already is one.
func WrapAgentError(err error) error {
	if err == nil || apperrors.Is(err, apperrors.ErrAgentInvocation) {
		return err
	}
	return &apperrors.AgentInvocationError{Err: err}
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute handles errors from downstream middlewares
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err != nil && m.handler != nil {
		return m.handler(err)
	}
	return err
}
