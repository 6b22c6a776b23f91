// Package resources builds the expensive advisory dependencies on first use
// and hands out the same instances for the lifetime of the process.
package resources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/krishimitra/agent"
	"github.com/sweetpotato0/krishimitra/config"
	"github.com/sweetpotato0/krishimitra/contrib/provider/gemini"
	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/middleware/errorhandler"
	"github.com/sweetpotato0/krishimitra/middleware/logger"
	"github.com/sweetpotato0/krishimitra/pkg/logging"
	"github.com/sweetpotato0/krishimitra/pkg/metrics"
	"github.com/sweetpotato0/krishimitra/prompt"
	"github.com/sweetpotato0/krishimitra/tool"
	"github.com/sweetpotato0/krishimitra/tool/serpapi"
)

// Resource keys, also used as metric labels.
const (
	KeyLanguageModel = "language_model"
	KeySearchTools   = "search_tools"
	KeyAgent         = "agent"
	KeyPrompt        = "prompt_template"
)

// DefaultToolNames is the named tool set loaded for the advisory flow.
var DefaultToolNames = []string{"serpapi"}

// Factories construct each resource. Any nil field falls back to the
// default constructor.
type Factories struct {
	LanguageModelClient func(ctx context.Context, cfg *config.Config) (agent.LLMClient, error)
	SearchTools         func(ctx context.Context, cfg *config.Config) (*tool.Registry, error)
	Agent               func(ctx context.Context, llm agent.LLMClient, tools *tool.Registry) (*agent.Agent, error)
	PromptTemplate      func() (*prompt.Advisory, error)
}

// DefaultFactories returns the production constructors.
func DefaultFactories() Factories {
	return Factories{
		LanguageModelClient: NewLanguageModelClient,
		SearchTools: func(_ context.Context, cfg *config.Config) (*tool.Registry, error) {
			return LoadTools(DefaultToolNames, cfg)
		},
		Agent:          NewAgent,
		PromptTemplate: prompt.NewAdvisory,
	}
}

func (f Factories) withDefaults() Factories {
	d := DefaultFactories()
	if f.LanguageModelClient == nil {
		f.LanguageModelClient = d.LanguageModelClient
	}
	if f.SearchTools == nil {
		f.SearchTools = d.SearchTools
	}
	if f.Agent == nil {
		f.Agent = d.Agent
	}
	if f.PromptTemplate == nil {
		f.PromptTemplate = d.PromptTemplate
	}
	return f
}

// Option configures a Cache.
type Option func(*Cache)

// WithFactories overrides resource constructors.
func WithFactories(f Factories) Option {
	return func(c *Cache) {
		c.factories = f.withDefaults()
	}
}

// WithMetrics records construction attempts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithLogger sets the cache logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache holds one slot per resource. A slot is filled by the first successful
// construction; concurrent first callers share a single construction. Failed
// constructions are not stored, so a later call tries again.
type Cache struct {
	cfg       *config.Config
	factories Factories
	metrics   *metrics.Metrics
	logger    *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	slots map[string]any
}

// New creates an empty cache reading credentials from cfg.
func New(cfg *config.Config, opts ...Option) *Cache {
	c := &Cache{
		cfg:       cfg,
		factories: DefaultFactories(),
		logger:    logging.WithComponent("resources"),
		slots:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.slots[key]
	return v, ok
}

// get returns the cached value for key, constructing it with build when the
// slot is empty. Construction runs detached from the caller's cancellation
// because its result is shared with every other waiter.
func (c *Cache) get(ctx context.Context, key string, build func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		v, err := build(context.WithoutCancel(ctx))
		c.metrics.ObserveConstruction(key, err)
		if err != nil {
			c.logger.WarnContext(ctx, "resource construction failed", "resource", key, "error", err)
			return nil, err
		}

		c.mu.Lock()
		c.slots[key] = v
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "resource constructed", "resource", key)
		return v, nil
	})
	return v, err
}

func (c *Cache) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	return config.Load()
}

// LanguageModelClient returns the shared model client.
func (c *Cache) LanguageModelClient(ctx context.Context) (agent.LLMClient, error) {
	v, err := c.get(ctx, KeyLanguageModel, func(ctx context.Context) (any, error) {
		cfg, err := c.config()
		if err != nil {
			return nil, err
		}
		return c.factories.LanguageModelClient(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	return v.(agent.LLMClient), nil
}

// SearchTools returns the shared tool registry.
func (c *Cache) SearchTools(ctx context.Context) (*tool.Registry, error) {
	v, err := c.get(ctx, KeySearchTools, func(ctx context.Context) (any, error) {
		cfg, err := c.config()
		if err != nil {
			return nil, err
		}
		return c.factories.SearchTools(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	return v.(*tool.Registry), nil
}

// Agent returns the shared agent, building the client and tools first.
func (c *Cache) Agent(ctx context.Context) (*agent.Agent, error) {
	v, err := c.get(ctx, KeyAgent, func(ctx context.Context) (any, error) {
		llm, err := c.LanguageModelClient(ctx)
		if err != nil {
			return nil, err
		}
		tools, err := c.SearchTools(ctx)
		if err != nil {
			return nil, err
		}
		return c.factories.Agent(ctx, llm, tools)
	})
	if err != nil {
		return nil, err
	}
	return v.(*agent.Agent), nil
}

// PromptTemplate returns the shared advisory template.
func (c *Cache) PromptTemplate(ctx context.Context) (*prompt.Advisory, error) {
	v, err := c.get(ctx, KeyPrompt, func(context.Context) (any, error) {
		return c.factories.PromptTemplate()
	})
	if err != nil {
		return nil, err
	}
	return v.(*prompt.Advisory), nil
}

// Close releases constructed resources that hold connections.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.slots[KeyLanguageModel].(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewLanguageModelClient builds the Gemini client from configuration and
// checks the key against the service once. A rejected key is a
// ConfigurationError and, like every failed construction, is not cached.
func NewLanguageModelClient(ctx context.Context, cfg *config.Config) (agent.LLMClient, error) {
	return newLanguageModelClient(ctx, cfg)
}

func newLanguageModelClient(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (agent.LLMClient, error) {
	key, err := cfg.ModelCredential()
	if err != nil {
		return nil, err
	}
	client, err := gemini.New(ctx, &gemini.Config{
		APIKey:      key,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
	}, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Verify(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewAgent builds the advisory agent around a client and tool registry.
func NewAgent(_ context.Context, llm agent.LLMClient, tools *tool.Registry) (*agent.Agent, error) {
	return agent.New(
		agent.WithName("krishimitra"),
		agent.WithProvider(llm),
		agent.WithTools(tools),
		agent.WithMaxIterations(agent.DefaultMaxIterations),
		agent.WithMiddlewares(
			logger.NewRunLogger(logging.WithComponent("agent")),
			errorhandler.NewAgentErrorWrapper(),
		),
	), nil
}

// LoadTools builds a registry holding the named tools.
func LoadTools(names []string, cfg *config.Config) (*tool.Registry, error) {
	registry, err := tool.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		var c tool.Capability
		switch name {
		case "serpapi":
			key, err := cfg.SearchCredential()
			if err != nil {
				return nil, err
			}
			if c, err = serpapi.New(serpapi.Config{APIKey: key}); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown tool %q", apperrors.ErrInvalidInput, name)
		}
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
