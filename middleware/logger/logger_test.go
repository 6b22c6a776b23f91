package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweetpotato0/krishimitra/message"
	"github.com/sweetpotato0/krishimitra/middleware"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
)

func TestRunLogger(t *testing.T) {
	t.Run("logs output", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewRunLogger(logging.New(&buf, "json", "debug"))

		ctx := &middleware.Context{Input: "test input"}
		err := m.Execute(ctx, func(c *middleware.Context) error {
			c.Response = message.NewMessage(message.RoleAssistant, "final answer")
			return nil
		})

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), "agent run started")
		assert.Contains(t, buf.String(), "agent run finished")
		assert.Contains(t, buf.String(), "final answer")
	})

	t.Run("logs and returns errors", func(t *testing.T) {
		var buf bytes.Buffer
		m := NewRunLogger(logging.New(&buf, "text", "info"))

		err := m.Execute(&middleware.Context{}, func(c *middleware.Context) error {
			return errors.New("boom")
		})

		assert.EqualError(t, err, "boom")
		assert.Contains(t, buf.String(), "agent run failed")
		assert.NotContains(t, buf.String(), "agent run started")
	})

	t.Run("nil logger falls back", func(t *testing.T) {
		m := NewRunLogger(nil)
		assert.Equal(t, "RunLogger", m.Name())
		assert.NotNil(t, m.logger)
	})
}
