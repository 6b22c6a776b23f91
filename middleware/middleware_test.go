package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type orderMiddleware struct {
	name  string
	err   error
	order *[]string
}

func (m *orderMiddleware) Name() string { return m.name }

func (m *orderMiddleware) Execute(ctx *Context, next Handler) error {
	*m.order = append(*m.order, m.name)
	if m.err != nil {
		return m.err
	}
	return next(ctx)
}

func TestMiddlewareChain(t *testing.T) {
	t.Run("empty chain executes final handler", func(t *testing.T) {
		executed := false
		err := NewChain().Execute(&Context{}, func(ctx *Context) error {
			executed = true
			return nil
		})

		assert.NoError(t, err)
		assert.True(t, executed)
	})

	t.Run("middleware chain executes in order", func(t *testing.T) {
		var order []string
		chain := NewChain(&orderMiddleware{name: "m1", order: &order})
		chain.Add(&orderMiddleware{name: "m2", order: &order})

		err := chain.Execute(&Context{}, func(c *Context) error {
			order = append(order, "final")
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, []string{"m1", "m2", "final"}, order)
		assert.Len(t, chain.List(), 2)
	})

	t.Run("error stops chain execution", func(t *testing.T) {
		var order []string
		chain := NewChain(
			&orderMiddleware{name: "m1", err: errors.New("test error"), order: &order},
			&orderMiddleware{name: "m2", order: &order},
		)

		finalCalled := false
		err := chain.Execute(&Context{}, func(c *Context) error {
			finalCalled = true
			return nil
		})

		assert.EqualError(t, err, "test error")
		assert.False(t, finalCalled)
		assert.Equal(t, []string{"m1"}, order)
	})
}

func TestContext(t *testing.T) {
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "v")

	ctx := NewContext(parent)
	assert.Equal(t, "v", ctx.Context().Value(key{}))

	assert.NotNil(t, (&Context{}).Context())
}
