package perplexity

import (
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "sonar"
)

type Config struct {
	BaseURL    string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.perplexity.ai"`
	APIKey     string        `envconfig:"API_KEY" split_words:"true"`
	Model      string        `envconfig:"MODEL" split_words:"true" default:"sonar"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxRetries int           `envconfig:"MAX_RETRIES" split_words:"true" default:"0"`
}

// NewClient creates an OpenAI SDK client pointed at the Perplexity API.
// It returns nil when no API key is configured.
func NewClient(cfg Config) *openaisdk.Client {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHeader("User-Agent", "fincoach/1.0"),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
