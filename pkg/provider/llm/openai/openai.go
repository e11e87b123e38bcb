// Package openai provides an LLM provider for any server that speaks the
// OpenAI chat completions API: OpenAI itself, or a local Ollama, vLLM or LM
// Studio instance reached through WithBaseURL.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/termfix/pkg/provider/llm"
	"github.com/MrWong99/termfix/pkg/types"
)

// maxRetries bounds the SDK's own retries of 429 and 5xx answers. The
// circuit breaker in the refine stage sees only the final outcome.
const maxRetries = 2

// localAPIKey is sent to self-hosted servers that ignore authentication.
const localAPIKey = "termfix-local"

// Provider implements llm.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
	// compat is set for self-hosted servers, which understand max_tokens
	// but not always max_completion_tokens.
	compat bool
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL, e.g.
// "http://localhost:11434/v1" for Ollama.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI-compatible LLM Provider. apiKey may be empty
// only when a base URL is configured.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	if apiKey == "" {
		if cfg.baseURL == "" {
			return nil, fmt.Errorf("openai: apiKey must not be empty without a base URL")
		}
		apiKey = localAPIKey
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model, compat: cfg.baseURL != ""}, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, fmt.Errorf("openai: build params: %w", err)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// CountTokens implements llm.Provider with a four-runes-per-token estimate.
func (p *Provider) CountTokens(messages []types.Message) (int, error) {
	total := 0
	for _, m := range messages {
		total += (utf8.RuneCountInString(m.Content) + 3) / 4
		total += 4
	}
	return total, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	return modelCapabilities(p.model)
}

// knownModels maps model name prefixes to their limits. The first matching
// prefix wins.
var knownModels = []struct {
	prefix string
	caps   types.ModelCapabilities
}{
	{"gpt-4o", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384}},
	{"gpt-4.1", types.ModelCapabilities{ContextWindow: 1_000_000, MaxOutputTokens: 32_768}},
	{"gpt-4-turbo", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096}},
	{"gpt-4", types.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096}},
	{"gpt-3.5-turbo", types.ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096}},
	{"llama3.1", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096}},
	{"llama3.2", types.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096}},
	{"qwen2.5", types.ModelCapabilities{ContextWindow: 32_768, MaxOutputTokens: 8_192}},
	{"mistral", types.ModelCapabilities{ContextWindow: 32_768, MaxOutputTokens: 4_096}},
}

// modelCapabilities looks model up in knownModels, falling back to a
// conservative 8k window.
func modelCapabilities(model string) types.ModelCapabilities {
	lower := strings.ToLower(model)
	for _, m := range knownModels {
		if strings.HasPrefix(lower, m.prefix) {
			return m.caps
		}
	}
	return types.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 2_048}
}

// buildParams converts a CompletionRequest into OpenAI SDK params.
func (p *Provider) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	var messages []oai.ChatCompletionMessageParamUnion

	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}

	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, msg)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}

	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	switch {
	case req.MaxTokens <= 0:
	case p.compat:
		params.MaxTokens = param.NewOpt(int64(req.MaxTokens))
	default:
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	return params, nil
}

// convertMessage converts a types.Message to an OpenAI SDK message param.
func convertMessage(m types.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case "system":
		return oai.SystemMessage(m.Content), nil
	case "user":
		return oai.UserMessage(m.Content), nil
	case "assistant":
		return oai.AssistantMessage(m.Content), nil
	default:
		return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unknown message role %q", m.Role)
	}
}
