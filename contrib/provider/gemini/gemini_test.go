package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/message"
	"github.com/sweetpotato0/krishimitra/tool"
)

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), DefaultConfig(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)

	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GOOGLE_API_KEY", cfgErr.Field)

	_, err = New(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("k")
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.InDelta(t, 0.4, cfg.Temperature, 1e-6)
}

func TestToContents(t *testing.T) {
	call := message.ToolCall{ID: "1", Name: "Search", Args: map[string]any{"query": "wheat"}}
	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, "tools: Search"),
		message.NewMessage(message.RoleUser, "When to sow wheat?"),
		message.NewToolCallMessage("", []message.ToolCall{call}),
		message.NewToolResponseMessage(call, "Rabi season"),
		message.NewMessage(message.RoleAssistant, "November"),
	}

	system, contents := toContents(msgs)
	require.NotNil(t, system)
	assert.Equal(t, []genai.Part{genai.Text("tools: Search")}, system.Parts)

	require.Len(t, contents, 4)
	assert.Equal(t, roleUser, contents[0].Role)
	assert.Equal(t, []genai.Part{genai.Text("When to sow wheat?")}, contents[0].Parts)

	assert.Equal(t, roleModel, contents[1].Role)
	assert.Equal(t, []genai.Part{genai.FunctionCall{Name: "Search", Args: map[string]any{"query": "wheat"}}}, contents[1].Parts)

	assert.Equal(t, roleUser, contents[2].Role)
	assert.Equal(t, []genai.Part{genai.FunctionResponse{Name: "Search", Response: map[string]any{"result": "Rabi season"}}}, contents[2].Parts)

	assert.Equal(t, roleModel, contents[3].Role)
}

func TestToContentsMergesSameRole(t *testing.T) {
	a := message.ToolCall{ID: "1", Name: "Search"}
	b := message.ToolCall{ID: "2", Name: "Search"}
	msgs := []*message.Message{
		message.NewMessage(message.RoleUser, "q"),
		message.NewToolCallMessage("", []message.ToolCall{a, b}),
		message.NewToolResponseMessage(a, "r1"),
		message.NewToolResponseMessage(b, "r2"),
	}

	system, contents := toContents(msgs)
	assert.Nil(t, system)
	require.Len(t, contents, 3)
	assert.Len(t, contents[1].Parts, 2)
	assert.Len(t, contents[2].Parts, 2)
}

func TestToFunctionDeclarations(t *testing.T) {
	registry, err := tool.NewRegistry(&tool.Func{ToolName: "Search", ToolDescription: "A search engine."})
	require.NoError(t, err)

	decls := toFunctionDeclarations(registry.ToJSONSchemas())
	require.Len(t, decls, 1)

	decl := decls[0]
	assert.Equal(t, "Search", decl.Name)
	assert.Equal(t, "A search engine.", decl.Description)
	require.NotNil(t, decl.Parameters)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	require.Contains(t, decl.Parameters.Properties, tool.InputParameter)
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties[tool.InputParameter].Type)
	assert.Equal(t, []string{tool.InputParameter}, decl.Parameters.Required)

	assert.Empty(t, toFunctionDeclarations([]map[string]any{{"function": map[string]any{}}}))
}

func TestFromResponse(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		msg, err := fromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: roleModel, Parts: []genai.Part{genai.Text("# Wheat\n"), genai.Text("Sow early.")}},
		}}})
		require.NoError(t, err)
		assert.Equal(t, message.RoleAssistant, msg.Role)
		assert.Equal(t, "# Wheat\nSow early.", msg.Content)
		assert.Empty(t, msg.ToolCalls)
	})

	t.Run("function call", func(t *testing.T) {
		msg, err := fromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: roleModel, Parts: []genai.Part{
				genai.FunctionCall{Name: "Search", Args: map[string]any{"query": "soil 302001"}},
			}},
		}}})
		require.NoError(t, err)
		require.Len(t, msg.ToolCalls, 1)
		assert.Equal(t, "Search", msg.ToolCalls[0].Name)
		assert.Equal(t, "soil 302001", msg.ToolCalls[0].Args["query"])
		assert.NotEmpty(t, msg.ToolCalls[0].ID)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := fromResponse(&genai.GenerateContentResponse{})
		assert.ErrorContains(t, err, "no candidates")
	})

	t.Run("blocked prompt", func(t *testing.T) {
		_, err := fromResponse(&genai.GenerateContentResponse{
			PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
		})
		assert.ErrorContains(t, err, "prompt blocked")
	})
}

func TestIsCredentialRejected(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"rest invalid key", &googleapi.Error{Code: 400, Message: "API key not valid. Please pass a valid API key."}, true},
		{"rest unauthorized", &googleapi.Error{Code: 401}, true},
		{"rest forbidden", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 403}), true},
		{"rest bad request", &googleapi.Error{Code: 400, Message: "model not found"}, false},
		{"rest unavailable", &googleapi.Error{Code: 503}, false},
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "no key"), true},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "denied"), true},
		{"grpc invalid key", status.Error(codes.InvalidArgument, "API key not valid"), true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad field"), false},
		{"network", errors.New("dial tcp: connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCredentialRejected(tc.err))
		})
	}
}
