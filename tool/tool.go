package tool

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/sweetpotato0/krishimitra/errors"
)

// InputParameter is the name of the single string argument every capability
// accepts when called by a model.
const InputParameter = "query"

// Capability is a named operation that takes free text and returns free text.
type Capability interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// Func adapts a plain function into a Capability.
type Func struct {
	ToolName        string
	ToolDescription string
	Handler         func(ctx context.Context, input string) (string, error)
}

func (f *Func) Name() string        { return f.ToolName }
func (f *Func) Description() string { return f.ToolDescription }

// Run calls the handler.
func (f *Func) Run(ctx context.Context, input string) (string, error) {
	if f.Handler == nil {
		return "", fmt.Errorf("tool %s has no handler", f.ToolName)
	}
	return f.Handler(ctx, input)
}

// JSONSchema returns the capability definition in the function-calling format
// understood by the model providers.
func JSONSchema(c Capability) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        c.Name(),
			"description": c.Description(),
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					InputParameter: map[string]any{
						"type":        "string",
						"description": "Input for the " + c.Name() + " tool",
					},
				},
				"required": []string{InputParameter},
			},
		},
	}
}

// InputFromArgs extracts the text input from model-supplied call arguments.
func InputFromArgs(args map[string]any) (string, error) {
	raw, ok := args[InputParameter]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", InputParameter)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string, got %T", InputParameter, raw)
	}
	return s, nil
}

// Registry manages a collection of capabilities keyed by exact name.
// All operations are thread-safe using RWMutex protection
type Registry struct {
	mu    sync.RWMutex // Protects tools and order
	tools map[string]Capability
	order []string
}

// NewRegistry creates a new registry holding caps
func NewRegistry(caps ...Capability) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Capability),
	}
	for _, c := range caps {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a capability to the registry
func (r *Registry) Register(c Capability) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[c.Name()]; exists {
		return fmt.Errorf("tool %s: %w", c.Name(), apperrors.ErrAlreadyExists)
	}
	r.tools[c.Name()] = c
	r.order = append(r.order, c.Name())
	return nil
}

// Lookup returns the capability registered under exactly name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.tools[name]
	return c, ok
}

// Get retrieves a capability by name, failing with ErrToolNotFound.
func (r *Registry) Get(name string) (Capability, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("tool %s: %w", name, apperrors.ErrToolNotFound)
	}
	return c, nil
}

// List returns all capabilities in registration order
func (r *Registry) List() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		caps = append(caps, r.tools[name])
	}
	return caps
}

// Len returns the number of registered capabilities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ToJSONSchemas returns all capabilities in JSON schema format
func (r *Registry) ToJSONSchemas() []map[string]any {
	caps := r.List()
	schemas := make([]map[string]any, 0, len(caps))
	for _, c := range caps {
		schemas = append(schemas, JSONSchema(c))
	}
	return schemas
}

// Execute runs a capability by name with model-supplied arguments
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	c, err := r.Get(name)
	if err != nil {
		return "", err
	}
	input, err := InputFromArgs(args)
	if err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	return c.Run(ctx, input)
}
