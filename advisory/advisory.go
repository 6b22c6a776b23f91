// Package advisory answers a farmer's question for a pincode: it searches the
// web for local context, fills the advisory prompt and lets the agent write
// the article.
package advisory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/krishimitra/agent"
	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/middleware/errorhandler"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
	"github.com/sweetpotato0/krishimitra/pkg/metrics"
	"github.com/sweetpotato0/krishimitra/pkg/telemetry"
	"github.com/sweetpotato0/krishimitra/prompt"
	"github.com/sweetpotato0/krishimitra/tool"
)

const (
	// SearchToolName is the exact capability name the flow searches with.
	SearchToolName = "Search"

	// NoSearchToolText is returned, without calling the agent, when the tool
	// set has no search capability.
	NoSearchToolText = "Could not find relevant information."

	// NoSearchResultContext replaces the search result when the search fails.
	NoSearchResultContext = "No information found from search."
)

// Status tells a full answer apart from the degraded paths.
type Status string

const (
	StatusAnswered          Status = "answered"
	StatusNoSearchTool      Status = "no_search_tool"
	StatusSearchUnavailable Status = "search_unavailable"
)

// Request is one farmer question.
type Request struct {
	Question string `json:"question"`
	Pincode  string `json:"pincode"`
}

// Response is the text shown to the farmer and how it was produced.
type Response struct {
	Text   string `json:"answer"`
	Status Status `json:"status"`
}

// Resources supplies the shared dependencies of the flow.
type Resources interface {
	LanguageModelClient(ctx context.Context) (agent.LLMClient, error)
	SearchTools(ctx context.Context) (*tool.Registry, error)
	Agent(ctx context.Context) (*agent.Agent, error)
	PromptTemplate(ctx context.Context) (*prompt.Advisory, error)
}

// Advisor runs the advisory flow. It holds no per-request state and may be
// shared by concurrent sessions.
type Advisor struct {
	resources Resources
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithLogger sets the advisor logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Advisor) {
		a.metrics = m
	}
}

// New creates an Advisor backed by resources.
func New(resources Resources, opts ...Option) *Advisor {
	a := &Advisor{
		resources: resources,
		logger:    logging.WithComponent("advisory"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BuildQuery forms the search query for a question asked from a pincode.
func BuildQuery(question, pincode string) string {
	return question + " in pincode " + pincode
}

// Answer returns the text of Advise.
func (a *Advisor) Answer(ctx context.Context, question, pincode string) (string, error) {
	resp, err := a.Advise(ctx, Request{Question: question, Pincode: pincode})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Advise runs search, prompt assembly and the agent for one request. Search
// problems degrade the answer; resource and agent failures are returned.
// Agent failures are always *errors.AgentInvocationError.
func (a *Advisor) Advise(ctx context.Context, req Request) (resp *Response, err error) {
	started := time.Now()
	ctx, span := telemetry.Start(ctx, "advisory.answer",
		attribute.String("advisory.pincode", req.Pincode),
		attribute.Int("advisory.question_chars", len(req.Question)),
	)
	defer func() {
		status := "error"
		if resp != nil {
			status = string(resp.Status)
			span.SetAttributes(attribute.String("advisory.status", status))
		}
		a.metrics.ObserveAdvisory(status, started)
		telemetry.End(span, err)
	}()

	if _, err := a.resources.LanguageModelClient(ctx); err != nil {
		return nil, err
	}
	tools, err := a.resources.SearchTools(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := a.resources.Agent(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, err := a.resources.PromptTemplate(ctx)
	if err != nil {
		return nil, err
	}

	var (
		search tool.Capability
		ok     bool
	)
	if tools != nil {
		search, ok = tools.Lookup(SearchToolName)
	}
	if !ok {
		a.logger.WarnContext(ctx, "search tool not available")
		return &Response{Text: NoSearchToolText, Status: StatusNoSearchTool}, nil
	}

	status := StatusAnswered
	searchContext, err := a.search(ctx, search, BuildQuery(req.Question, req.Pincode))
	if err != nil {
		a.logger.WarnContext(ctx, "search failed, continuing without context", "error", err)
		a.metrics.ObserveSearchFailure()
		searchContext = NoSearchResultContext
		status = StatusSearchUnavailable
	}

	instruction := tmpl.Assemble(searchContext, req.Question, req.Pincode)

	output, err := a.invoke(ctx, runner, instruction)
	if err != nil {
		a.logger.ErrorContext(ctx, "agent invocation failed", "error", err)
		return nil, err
	}

	a.logger.InfoContext(ctx, "advisory answered",
		"status", status,
		"answer_chars", len(output),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return &Response{Text: output, Status: status}, nil
}

func (a *Advisor) search(ctx context.Context, search tool.Capability, query string) (string, error) {
	ctx, span := telemetry.Start(ctx, "advisory.search", attribute.String("tool.name", search.Name()))
	result, err := search.Run(ctx, query)
	if err != nil {
		err = fmt.Errorf("%w: %w", apperrors.ErrSearchUnavailable, err)
	}
	telemetry.End(span, err)
	return result, err
}

func (a *Advisor) invoke(ctx context.Context, runner *agent.Agent, instruction string) (string, error) {
	ctx, span := telemetry.Start(ctx, "advisory.agent", attribute.Int("advisory.prompt_chars", len(instruction)))
	output, err := runner.Run(ctx, instruction)
	err = errorhandler.WrapAgentError(err)
	telemetry.End(span, err)
	return output, err
}

// IsAgentFailure reports whether err came from the agent invocation.
func IsAgentFailure(err error) bool {
	return apperrors.Is(err, apperrors.ErrAgentInvocation)
}
