package perception

import (
	"context"
	"fmt"

	"reqforge/internal/config"
)

// NewClient builds an LLMClient for the configured provider. The deepseek
// and openai providers share the OpenAI-compatible chat completions client;
// gemini uses the genai SDK.
func NewClient(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	llm := cfg.LLM

	switch llm.Provider {
	case "deepseek", "openai", "":
		dsCfg := DefaultDeepSeekConfig(llm.APIKey)
		dsCfg.Timeout = cfg.GetTimeout()
		dsCfg.RequestsPerMinute = llm.RequestsPerMinute
		if llm.Model != "" {
			dsCfg.Model = llm.Model
		}
		if llm.BaseURL != "" {
			dsCfg.BaseURL = llm.BaseURL
		} else if llm.Provider == "openai" {
			dsCfg.BaseURL = "https://api.openai.com/v1"
		}
		return NewDeepSeekClientWithConfig(dsCfg), nil

	case "gemini":
		return NewGeminiClient(ctx, llm.APIKey, llm.Model)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", llm.Provider)
	}
}
