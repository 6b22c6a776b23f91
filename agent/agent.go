package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/krishimitra/conversation"
	"github.com/sweetpotato0/krishimitra/message"
	"github.com/sweetpotato0/krishimitra/middleware"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
	"github.com/sweetpotato0/krishimitra/pkg/telemetry"
	"github.com/sweetpotato0/krishimitra/tool"
)

const (
	// DefaultMaxIterations bounds the number of model calls in one run.
	DefaultMaxIterations = 15

	// StoppedOutput is returned when a run exhausts its iterations without a
	// final answer.
	StoppedOutput = "Agent stopped due to iteration limit or time limit."
)

// ErrNoProvider is returned by Run when the agent has no LLM client.
var ErrNoProvider = errors.New("agent has no LLM provider")

// Agent drives a tool-calling loop against an LLM. It keeps no per-run state,
// so a single Agent may serve concurrent runs.
type Agent struct {
	name          string
	systemPrompt  string
	maxIterations int
	llm           LLMClient
	tools         *tool.Registry
	middlewares   *middleware.MiddlewareChain
	logger        *slog.Logger
}

// Option is a function that configures an Agent
type Option func(*Agent)

// WithName sets the agent name
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithSystemPrompt replaces the generated tool-listing system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxIterations sets the maximum iterations for tool calling
func WithMaxIterations(max int) Option {
	return func(a *Agent) {
		if max > 0 {
			a.maxIterations = max
		}
	}
}

// WithProvider sets the LLM provider
func WithProvider(provider LLMClient) Option {
	return func(a *Agent) {
		a.llm = provider
	}
}

// WithTools sets the registry the agent may call into.
func WithTools(registry *tool.Registry) Option {
	return func(a *Agent) {
		if registry != nil {
			a.tools = registry
		}
	}
}

// WithMiddleware adds a middleware to the agent
func WithMiddleware(m middleware.Middleware) Option {
	return func(a *Agent) {
		if m != nil {
			a.middlewares.Add(m)
		}
	}
}

// WithMiddlewares sets the middleware chain
func WithMiddlewares(middlewares ...middleware.Middleware) Option {
	return func(a *Agent) {
		a.middlewares = middleware.NewChain(middlewares...)
	}
}

// WithLogger sets the logger used for iteration tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a new agent with the given options
func New(opts ...Option) *Agent {
	registry, _ := tool.NewRegistry()
	agent := &Agent{
		name:          "Agent",
		maxIterations: DefaultMaxIterations,
		tools:         registry,
		middlewares:   middleware.NewChain(),
		logger:        logging.WithComponent("agent"),
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.name
}

// Tools returns the capabilities available to the agent.
func (a *Agent) Tools() []tool.Capability {
	return a.tools.List()
}

// SystemPrompt returns the system message each run starts with.
func (a *Agent) SystemPrompt() string {
	if a.systemPrompt != "" {
		return a.systemPrompt
	}

	var b strings.Builder
	b.WriteString("Answer the following questions as best you can. You have access to the following tools:\n\n")
	for _, c := range a.tools.List() {
		fmt.Fprintf(&b, "%s: %s\n", c.Name(), c.Description())
	}
	b.WriteString("\nCall a tool whenever it helps. When you know the final answer, reply with it directly and do not call any tool.")
	return b.String()
}

// Run executes one instruction and returns the final model output.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	if a.llm == nil {
		return "", ErrNoProvider
	}

	ctx, span := telemetry.Start(ctx, "agent.run",
		attribute.String("agent.name", a.name),
		attribute.Int("agent.max_iterations", a.maxIterations),
	)

	mwCtx := middleware.NewContext(ctx)
	mwCtx.Input = input

	var output string
	err := a.middlewares.Execute(mwCtx, func(mwCtx *middleware.Context) error {
		out, err := a.loop(mwCtx)
		output = out
		return err
	})
	telemetry.End(span, err)
	if err != nil {
		return "", err
	}
	return output, nil
}

func (a *Agent) loop(mwCtx *middleware.Context) (string, error) {
	ctx := mwCtx.Context()

	transcript := conversation.New()
	transcript.Add(message.NewMessage(message.RoleSystem, a.SystemPrompt()))
	transcript.Add(message.NewMessage(message.RoleUser, mwCtx.Input))

	schemas := a.tools.ToJSONSchemas()

	for i := 0; i < a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := a.llm.Generate(ctx, &GenerateRequest{
			Messages: transcript.Messages(),
			Tools:    schemas,
		})
		if err != nil {
			mwCtx.Error = fmt.Errorf("LLM generation failed: %w", err)
			return "", mwCtx.Error
		}
		if resp == nil || resp.Message == nil {
			mwCtx.Error = errors.New("LLM returned no message")
			return "", mwCtx.Error
		}

		reply := resp.Message
		transcript.Add(reply)
		mwCtx.Response = reply

		if len(reply.ToolCalls) == 0 {
			a.logger.DebugContext(ctx, "agent finished", "iterations", i+1)
			return reply.Content, nil
		}

		for _, call := range reply.ToolCalls {
			transcript.Add(message.NewToolResponseMessage(call, a.callTool(ctx, call)))
		}
	}

	a.logger.WarnContext(ctx, "agent hit iteration limit", "max_iterations", a.maxIterations)
	return StoppedOutput, nil
}

// callTool runs one requested tool. Failures become the observation text so
// the model can recover.
func (a *Agent) callTool(ctx context.Context, call message.ToolCall) string {
	ctx, span := telemetry.Start(ctx, "agent.tool", attribute.String("tool.name", call.Name))
	result, err := a.tools.Execute(ctx, call.Name, call.Args)
	telemetry.End(span, err)

	if err != nil {
		a.logger.WarnContext(ctx, "tool call failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
	}
	a.logger.DebugContext(ctx, "tool call finished", "tool", call.Name, "bytes", len(result))
	return result
}
