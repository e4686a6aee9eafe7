// internal/providers/llm/registry.go
package llm

import (
	"context"
	"fmt"

	"travel-planner/internal/common/config"
	"travel-planner/internal/common/logger"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Source hands the candidate router its ordered provider list.
type Source interface {
	Providers(ctx context.Context) []Provider
}

// Registry builds one provider per configured credential when it is created
// and hands out the ordered list on every planning call. Providers without
// an API key are left out.
type Registry struct {
	cfg   config.LLMConfig
	log   logger.Logger
	built map[string]Provider
}

func NewRegistry(cfg config.LLMConfig, log logger.Logger) *Registry {
	r := &Registry{
		cfg:   cfg,
		log:   log.WithFields(map[string]interface{}{"component": "llm_registry"}),
		built: make(map[string]Provider),
	}

	opts := CallOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	for _, name := range cfg.ProviderOrder() {
		if _, ok := r.built[name]; ok {
			continue
		}
		p, err := r.build(context.Background(), name, opts)
		if err != nil {
			r.log.Warn("skipping generative provider", map[string]interface{}{
				"provider": name,
				"error":    err.Error(),
			})
			continue
		}
		if p != nil {
			r.built[name] = p
		}
	}
	return r
}

// Providers returns the ordered list for one planning call.
func (r *Registry) Providers(context.Context) []Provider {
	var out []Provider
	seen := make(map[string]bool)
	for _, name := range r.cfg.ProviderOrder() {
		p, ok := r.built[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, p)
	}
	return out
}

func (r *Registry) build(ctx context.Context, name string, opts CallOptions) (Provider, error) {
	switch name {
	case ProviderOpenAI:
		creds := r.cfg.OpenAI
		if creds.APIKey == "" {
			return nil, nil
		}
		o := []openai.Option{openai.WithToken(creds.APIKey), openai.WithModel(creds.Model)}
		if creds.BaseURL != "" {
			o = append(o, openai.WithBaseURL(creds.BaseURL))
		}
		client, err := openai.New(o...)
		if err != nil {
			return nil, err
		}
		opts.JSONMode = true
		return NewChatProvider(name, creds.Model, client, opts), nil

	case ProviderAnthropic:
		creds := r.cfg.Anthropic
		if creds.APIKey == "" {
			return nil, nil
		}
		o := []anthropic.Option{anthropic.WithToken(creds.APIKey), anthropic.WithModel(creds.Model)}
		if creds.BaseURL != "" {
			o = append(o, anthropic.WithBaseURL(creds.BaseURL))
		}
		client, err := anthropic.New(o...)
		if err != nil {
			return nil, err
		}
		return NewChatProvider(name, creds.Model, client, opts), nil

	case ProviderGemini:
		creds := r.cfg.Gemini
		if creds.APIKey == "" {
			return nil, nil
		}
		client, err := googleai.New(ctx,
			googleai.WithAPIKey(creds.APIKey),
			googleai.WithDefaultModel(creds.Model),
		)
		if err != nil {
			return nil, err
		}
		opts.JSONMode = true
		return NewChatProvider(name, creds.Model, client, opts), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// Static is a fixed provider list.
type Static []Provider

func (s Static) Providers(context.Context) []Provider { return s }
