// Package llm adapts hosted text-generation services to the single
// Generate operation the candidate router needs.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Provider generates raw text, expected to be JSON, from a system
// instruction and a structured user payload.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, system string, payload []byte) (string, error)
}

// ErrEmptyResponse is returned when the service answers with no choices.
var ErrEmptyResponse = errors.New("provider returned no choices")

// CallOptions are applied to every Generate call.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// ChatProvider drives any langchaingo chat model.
type ChatProvider struct {
	name   string
	model  string
	client llms.Model
	opts   CallOptions
}

func NewChatProvider(name, model string, client llms.Model, opts CallOptions) *ChatProvider {
	return &ChatProvider{name: name, model: model, client: client, opts: opts}
}

func (p *ChatProvider) Name() string  { return p.name }
func (p *ChatProvider) Model() string { return p.model }

func (p *ChatProvider) Generate(ctx context.Context, system string, payload []byte) (string, error) {
	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(system)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(string(payload))}},
	}

	var callOpts []llms.CallOption
	if p.opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(p.opts.Temperature))
	}
	if p.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(p.opts.MaxTokens))
	}
	if p.opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := p.client.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", p.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
