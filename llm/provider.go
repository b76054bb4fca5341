// Package llm builds the chat model shared by every supervisor and worker.
package llm

import (
	"fmt"

	"github.com/smallnest/teamgraph/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

// New returns the model selected by cfg.Provider.
func New(cfg config.LLM) (llms.Model, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAI(cfg)
	case "anthropic":
		return newAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func newOpenAI(cfg config.LLM) (llms.Model, error) {
	var opts []openai.Option
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, openai.WithToken(cfg.OpenAIAPIKey))
	}
	if cfg.OpenAIModel != "" {
		opts = append(opts, openai.WithModel(cfg.OpenAIModel))
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai model: %w", err)
	}
	return model, nil
}

func newAnthropic(cfg config.LLM) (llms.Model, error) {
	var opts []anthropic.Option
	if cfg.AnthropicAPIKey != "" {
		opts = append(opts, anthropic.WithToken(cfg.AnthropicAPIKey))
	}
	if cfg.AnthropicModel != "" {
		opts = append(opts, anthropic.WithModel(cfg.AnthropicModel))
	}

	model, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic model: %w", err)
	}
	return model, nil
}
