package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	geminix "github.com/tanpawarit/Chative-Finance-Simulator/pkg/gemini"
	perplexityx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/perplexity"
)

// NewGenerator builds the text generator for role. It returns (nil, nil)
// when the role has no API key, which callers treat as offline mode.
func NewGenerator(ctx context.Context, cfg Config, role Role) (contractx.TextGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.KeyFor(role) == "" {
		log.Info().Str("role", string(role)).Msg("no api key, running offline")
		return nil, nil
	}

	provider := cfg.ProviderName()
	logger := log.With().Str("role", string(role)).Str("provider", string(provider)).Str("model", cfg.ModelFor(role)).Logger()

	switch provider {
	case ProviderPerplexity:
		client := perplexityx.NewClient(cfg.PerplexityFor(role))
		gen, err := NewOpenAIGenerator(client, cfg.ModelFor(role), true)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("text generator ready")
		return gen, nil

	case ProviderOpenRouter:
		orCfg := cfg.OpenRouterFor(role)
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrRemoteCall, err)
		}
		gen, err := NewChatModelGenerator(ctx, chatModel, string(role))
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("text generator ready")
		return gen, nil

	case ProviderGemini:
		client, err := geminix.NewClient(ctx, cfg.GeminiFor(role))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrRemoteCall, err)
		}
		gen, err := NewGeminiGenerator(client, cfg.ModelFor(role))
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("text generator ready")
		return gen, nil
	}

	return nil, fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, cfg.Provider)
}
