package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpotato0/krishimitra/advisory"
)

type advisorFunc func(ctx context.Context, req advisory.Request) (*advisory.Response, error)

func (f advisorFunc) Advise(ctx context.Context, req advisory.Request) (*advisory.Response, error) {
	return f(ctx, req)
}

// connect runs the server on in-memory transports and returns a client
// session bound to the test lifetime.
func connect(t *testing.T, advisor Advisor) *mcp.ClientSession {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- New(advisor, "test").Run(ctx, serverTransport)
	}()
	t.Cleanup(func() {
		cancel()
		<-serverDone
	})

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	session := connect(t, advisorFunc(func(context.Context, advisory.Request) (*advisory.Response, error) {
		return nil, nil
	}))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, ToolName, res.Tools[0].Name)
}

func TestAskKrishiMitra(t *testing.T) {
	var got advisory.Request
	session := connect(t, advisorFunc(func(_ context.Context, req advisory.Request) (*advisory.Response, error) {
		got = req
		return &advisory.Response{Text: "# Wheat\nSow in November.", Status: advisory.StatusAnswered}, nil
	}))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"question": "Best wheat season?", "pincode": "302001"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "# Wheat\nSow in November.", textOf(t, res))
	assert.Equal(t, advisory.Request{Question: "Best wheat season?", Pincode: "302001"}, got)
}

func TestAskKrishiMitraErrors(t *testing.T) {
	session := connect(t, advisorFunc(func(context.Context, advisory.Request) (*advisory.Response, error) {
		return nil, errors.New("model quota exhausted")
	}))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"question": "q", "pincode": "p"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "model quota exhausted")

}

func TestAskKrishiMitraPassesEmptyValuesThrough(t *testing.T) {
	var got advisory.Request
	calls := 0
	session := connect(t, advisorFunc(func(_ context.Context, req advisory.Request) (*advisory.Response, error) {
		calls++
		got = req
		return &advisory.Response{Text: "Could not find relevant information.", Status: advisory.StatusNoSearchTool}, nil
	}))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"question": "", "pincode": ""},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 1, calls)
	assert.Equal(t, advisory.Request{}, got)
	assert.Equal(t, "Could not find relevant information.", textOf(t, res))
}
