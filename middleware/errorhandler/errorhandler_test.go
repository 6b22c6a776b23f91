package errorhandler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/middleware"
)

func TestErrorHandler(t *testing.T) {
	t.Run("catches error from next middleware", func(t *testing.T) {
		errorCaught := false
		handler := NewErrorHandler(func(err error) error {
			errorCaught = true
			return nil
		})

		err := handler.Execute(&middleware.Context{}, func(c *middleware.Context) error {
			return errors.New("test error")
		})

		assert.NoError(t, err)
		assert.True(t, errorCaught)
	})

	t.Run("passes through non-errors", func(t *testing.T) {
		handlerCalled := false
		handler := NewErrorHandler(func(err error) error {
			handlerCalled = true
			return err
		})

		err := handler.Execute(&middleware.Context{}, func(c *middleware.Context) error {
			return nil
		})

		assert.NoError(t, err)
		assert.False(t, handlerCalled)
	})
}

func TestAgentErrorWrapper(t *testing.T) {
	cause := errors.New("quota exceeded")
	handler := NewAgentErrorWrapper()

	err := handler.Execute(&middleware.Context{}, func(c *middleware.Context) error {
		return cause
	})

	var invocation *apperrors.AgentInvocationError
	assert.ErrorAs(t, err, &invocation)
	assert.ErrorIs(t, err, apperrors.ErrAgentInvocation)
	assert.ErrorIs(t, err, cause)

	assert.Same(t, err, WrapAgentError(err), "already wrapped errors are kept")
	assert.NoError(t, WrapAgentError(nil))
}
