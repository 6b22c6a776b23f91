package agent

import (
	"context"

	"github.com/sweetpotato0/krishimitra/message"
)

// LLMClient defines the interface for LLM providers
type LLMClient interface {
	// Generate produces the next assistant message for the conversation so far.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest bundles inputs for a single LLM invocation.
type GenerateRequest struct {
	Messages []*message.Message
	Tools    []map[string]any
}

// GenerateResponse captures the LLM reply.
type GenerateResponse struct {
	Message *message.Message
}

// LLMClientFunc adapts a function into an LLMClient.
type LLMClientFunc func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

// Generate calls f.
func (f LLMClientFunc) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	return f(ctx, req)
}
