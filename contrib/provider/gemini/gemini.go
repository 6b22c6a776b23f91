// Package gemini implements agent.LLMClient on Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sweetpotato0/krishimitra/agent"
	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/message"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTemperature is the sampling temperature used when none is configured.
	DefaultTemperature = 0.4

	// CredentialEnv names the variable the API key comes from.
	CredentialEnv = "GOOGLE_API_KEY"

	roleUser  = "user"
	roleModel = "model"
)

var _ agent.LLMClient = (*Provider)(nil)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
	}
}

// Provider implements the LLMClient interface for Google Gemini. It is safe
// for concurrent use; each call builds its own model handle.
type Provider struct {
	config Config
	client *genai.Client
}

// New creates a new Gemini provider. An empty API key is a configuration error.
func New(ctx context.Context, config *Config, opts ...option.ClientOption) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	cfg := *config
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.NewConfigurationError(CredentialEnv, nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{config: cfg, client: client}, nil
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// Temperature returns the configured sampling temperature.
func (p *Provider) Temperature() float32 {
	return p.config.Temperature
}

// Verify makes one authenticated call that reads the configured model. A key
// the service rejects is reported as a ConfigurationError.
func (p *Provider) Verify(ctx context.Context) error {
	_, err := p.client.GenerativeModel(p.config.Model).Info(ctx)
	if err == nil {
		return nil
	}
	if IsCredentialRejected(err) {
		return apperrors.NewConfigurationError(CredentialEnv, err)
	}
	return fmt.Errorf("gemini: verify model %s: %w", p.config.Model, err)
}

// IsCredentialRejected reports whether err is the service refusing the API
// key, over either the REST or the gRPC transport.
func IsCredentialRejected(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return true
		case 400:
			return keyNotValid(apiErr.Message) || keyNotValid(apiErr.Body)
		}
		return false
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return true
	case codes.InvalidArgument:
		return keyNotValid(err.Error())
	}
	return false
}

func keyNotValid(text string) bool {
	return strings.Contains(text, "API key not valid") || strings.Contains(text, "API_KEY_INVALID")
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Generate implements agent.LLMClient interface
func (p *Provider) Generate(ctx context.Context, req *agent.GenerateRequest) (*agent.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("generate request cannot be nil")
	}

	system, contents := toContents(req.Messages)
	if len(contents) == 0 {
		return nil, errors.New("gemini: request has no user content")
	}

	model := p.client.GenerativeModel(p.config.Model)
	model.SetTemperature(p.config.Temperature)
	if system != nil {
		model.SystemInstruction = system
	}
	if decls := toFunctionDeclarations(req.Tools); len(decls) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	resp, err := session.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	msg, err := fromResponse(resp)
	if err != nil {
		return nil, err
	}
	return &agent.GenerateResponse{Message: msg}, nil
}

// toContents splits system messages into a system instruction and maps the
// rest onto Gemini turns. Consecutive messages with the same role share a
// turn because the API expects alternating roles.
func toContents(msgs []*message.Message) (*genai.Content, []*genai.Content) {
	var (
		system   []string
		contents []*genai.Content
	)

	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case message.RoleSystem:
			system = append(system, msg.Content)
		case message.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
			appendParts(roleModel, parts...)
		case message.RoleTool:
			appendParts(roleUser, genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: map[string]any{"result": msg.Content},
			})
		default:
			appendParts(roleUser, genai.Text(msg.Content))
		}
	}

	if len(system) == 0 {
		return nil, contents
	}
	return &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}, contents
}

// toFunctionDeclarations converts function-calling tool schemas into Gemini
// declarations. Entries without a name are skipped.
func toFunctionDeclarations(tools []map[string]any) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		fn, ok := t["function"].(map[string]any)
		if !ok {
			fn = t
		}
		name, _ := fn["name"].(string)
		if name == "" {
			continue
		}
		desc, _ := fn["description"].(string)
		decl := &genai.FunctionDeclaration{Name: name, Description: desc}
		if params, ok := fn["parameters"].(map[string]any); ok {
			decl.Parameters = toSchema(params)
		}
		decls = append(decls, decl)
	}
	return decls
}

func toSchema(m map[string]any) *genai.Schema {
	s := &genai.Schema{}
	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				s.Properties[name] = toSchema(prop)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toSchema(items)
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = append(s.Required, req...)
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}

// fromResponse converts the first candidate into an assistant message.
func fromResponse(resp *genai.GenerateContentResponse) (*message.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return nil, fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, errors.New("gemini: no candidates in response")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return nil, fmt.Errorf("gemini: empty candidate (finish reason %s)", cand.FinishReason)
	}

	var (
		text  strings.Builder
		calls []message.ToolCall
	)
	for _, part := range cand.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			calls = append(calls, message.ToolCall{ID: uuid.NewString(), Name: v.Name, Args: v.Args})
		case *genai.FunctionCall:
			calls = append(calls, message.ToolCall{ID: uuid.NewString(), Name: v.Name, Args: v.Args})
		}
	}

	if len(calls) > 0 {
		return message.NewToolCallMessage(text.String(), calls), nil
	}
	return message.NewMessage(message.RoleAssistant, text.String()), nil
}
