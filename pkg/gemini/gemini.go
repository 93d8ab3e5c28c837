package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash-lite"

type Config struct {
	APIKey string `envconfig:"API_KEY" split_words:"true"`
	Model  string `envconfig:"MODEL" split_words:"true" default:"gemini-2.5-flash-lite"`
}

// NewClient returns (nil, nil) when no API key is configured.
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}
