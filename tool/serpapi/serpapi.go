// Package serpapi provides the "Search" capability backed by SerpAPI's
// Google engine.
package serpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/sweetpotato0/krishimitra/errors"
	"github.com/sweetpotato0/krishimitra/pkg/textutil"
	"github.com/sweetpotato0/krishimitra/tool"
)

const (
	// ToolName is the name the advisory flow looks the capability up by.
	ToolName = "Search"

	// NoResult is returned when the response carries nothing usable.
	NoResult = "No good search result found"

	defaultEndpoint = "https://serpapi.com/search"
	description     = "A search engine. Useful for when you need to answer questions about current events. Input should be a search query."
)

var _ tool.Capability = (*Search)(nil)

// Config holds SerpAPI settings. Zero values fall back to the Google engine
// defaults.
type Config struct {
	APIKey       string
	Endpoint     string
	Engine       string
	GoogleDomain string
	Country      string
	Language     string
}

// Search calls SerpAPI and condenses the response into a text answer.
type Search struct {
	config Config
	client *http.Client
}

// New creates the capability. An empty API key is a configuration error.
func New(cfg Config) (*Search, error) {
	return NewWithClient(cfg, &http.Client{})
}

// NewWithClient creates the capability using the supplied HTTP client.
func NewWithClient(cfg Config, client *http.Client) (*Search, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.NewConfigurationError("SERPAPI_API_KEY", nil)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Engine == "" {
		cfg.Engine = "google"
	}
	if cfg.GoogleDomain == "" {
		cfg.GoogleDomain = "google.com"
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Search{config: cfg, client: client}, nil
}

func (s *Search) Name() string        { return ToolName }
func (s *Search) Description() string { return description }

// Run performs one search request.
func (s *Search) Run(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("api_key", s.config.APIKey)
	params.Set("engine", s.config.Engine)
	params.Set("google_domain", s.config.GoogleDomain)
	params.Set("gl", s.config.Country)
	params.Set("hl", s.config.Language)
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("serpapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("serpapi: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("serpapi: read response: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("serpapi: http %d: response is not JSON", resp.StatusCode)
	}
	res := gjson.ParseBytes(body)
	if msg := res.Get("error"); msg.Exists() {
		return "", fmt.Errorf("serpapi: got error from SerpAPI: %s", msg.String())
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("serpapi: http %d", resp.StatusCode)
	}

	return Condense(res), nil
}

// Condense reduces a SerpAPI response to the most direct answer it carries:
// the answer box, then sports/news blocks, then knowledge graph facts and
// organic snippets.
func Condense(res gjson.Result) string {
	box := res.Get("answer_box")
	if list := res.Get("answer_box_list"); list.Exists() {
		box = list
	}
	if box.IsArray() {
		box = box.Get("0")
	}
	if box.Exists() {
		for _, key := range []string{"result", "answer", "snippet"} {
			if v := box.Get(key); v.Exists() {
				return textutil.StripHTML(v.String())
			}
		}
		if words := box.Get("snippet_highlighted_words"); words.Exists() {
			return joinStrings(words)
		}
		return scalarFields(box)
	}

	if direct, ok := directResults(res); ok {
		return direct
	}

	var snippets []string
	if kg := res.Get("knowledge_graph"); kg.Exists() {
		title := kg.Get("title").String()
		if d := kg.Get("description"); d.Exists() {
			snippets = append(snippets, textutil.StripHTML(d.String()))
		}
		kg.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if value.Type != gjson.String || k == "title" || k == "description" {
				return true
			}
			if strings.HasSuffix(k, "_stick") || strings.HasSuffix(k, "_link") || strings.HasPrefix(value.String(), "http") {
				return true
			}
			snippets = append(snippets, fmt.Sprintf("%s %s: %s.", title, k, value.String()))
			return true
		})
	}

	res.Get("organic_results").ForEach(func(_, result gjson.Result) bool {
		switch {
		case result.Get("snippet").Exists():
			snippets = append(snippets, textutil.StripHTML(result.Get("snippet").String()))
		case result.Get("snippet_highlighted_words").Exists():
			snippets = append(snippets, joinStrings(result.Get("snippet_highlighted_words")))
		case result.Get("rich_snippet").Exists():
			snippets = append(snippets, result.Get("rich_snippet").Raw)
		case result.Get("link").Exists():
			snippets = append(snippets, result.Get("link").String())
		}
		return true
	})

	if !res.Get("organic_results").Exists() {
		if places := res.Get("local_results.places"); places.Exists() {
			snippets = append(snippets, places.Raw)
		}
	}

	if len(snippets) == 0 {
		return NoResult
	}
	return strings.Join(snippets, "\n")
}

// directResults returns the first specialised result block, checked in a
// fixed order, as raw JSON. Long lists are cut to the entries worth reading.
func directResults(res gjson.Result) (string, bool) {
	switch {
	case res.Get("events_results").Exists():
		return firstN(res.Get("events_results"), 10), true
	case res.Get("sports_results").Exists():
		return res.Get("sports_results").Raw, true
	case res.Get("top_stories").Exists():
		return res.Get("top_stories").Raw, true
	case res.Get("news_results").Exists():
		return res.Get("news_results").Raw, true
	case res.Get("jobs_results.jobs").Exists():
		return res.Get("jobs_results.jobs").Raw, true
	case res.Get("shopping_results.0.title").Exists():
		return firstN(res.Get("shopping_results"), 3), true
	case res.Get("questions_and_answers").Exists():
		return res.Get("questions_and_answers").Raw, true
	case res.Get("popular_destinations.destinations").Exists():
		return res.Get("popular_destinations.destinations").Raw, true
	case res.Get("top_sights.sights").Exists():
		return res.Get("top_sights.sights").Raw, true
	case res.Get("images_results.0.thumbnail").Exists():
		var thumbs []string
		for i, item := range res.Get("images_results").Array() {
			if i == 10 {
				break
			}
			thumbs = append(thumbs, item.Get("thumbnail").String())
		}
		return strings.Join(thumbs, "\n"), true
	}
	return "", false
}

// firstN returns at most n elements of the array v as raw JSON.
func firstN(v gjson.Result, n int) string {
	if !v.IsArray() {
		return v.Raw
	}
	items := v.Array()
	if len(items) <= n {
		return v.Raw
	}
	raw := make([]string, n)
	for i := range raw {
		raw[i] = items[i].Raw
	}
	return "[" + strings.Join(raw, ",") + "]"
}

func joinStrings(v gjson.Result) string {
	if !v.IsArray() {
		return v.String()
	}
	var parts []string
	for _, item := range v.Array() {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, ", ")
}

func scalarFields(obj gjson.Result) string {
	var parts []string
	obj.ForEach(func(key, value gjson.Result) bool {
		if value.IsArray() || value.IsObject() {
			return true
		}
		if value.Type == gjson.String && strings.HasPrefix(value.String(), "http") {
			return true
		}
		parts = append(parts, fmt.Sprintf("%s: %s", key.String(), value.String()))
		return true
	})
	if len(parts) == 0 {
		return NoResult
	}
	return strings.Join(parts, "; ")
}

