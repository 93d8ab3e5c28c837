package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	geminix "github.com/tanpawarit/Chative-Finance-Simulator/pkg/gemini"
	openrouterx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/openrouter"
	perplexityx "github.com/tanpawarit/Chative-Finance-Simulator/pkg/perplexity"
)

type Provider string

const (
	ProviderPerplexity Provider = "perplexity"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

// Role is the side of the conversation a generator speaks for.
type Role string

const (
	RoleClient  Role = "client"
	RoleAdvisor Role = "advisor"
)

type Config struct {
	Provider      string        `envconfig:"PROVIDER" split_words:"true" default:"perplexity"`
	APIKey        string        `envconfig:"API_KEY" split_words:"true"`
	ClientAPIKey  string        `envconfig:"CLIENT_API_KEY" split_words:"true"`
	AdvisorAPIKey string        `envconfig:"ADVISOR_API_KEY" split_words:"true"`
	BaseURL       string        `envconfig:"BASE_URL" split_words:"true"`
	Model         string        `envconfig:"MODEL" split_words:"true"`
	ClientModel   string        `envconfig:"CLIENT_MODEL" split_words:"true"`
	AdvisorModel  string        `envconfig:"ADVISOR_MODEL" split_words:"true"`
	Timeout       time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxRetries    int           `envconfig:"MAX_RETRIES" split_words:"true" default:"0"`
	SiteURL       string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName      string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) Validate() error {
	switch c.ProviderName() {
	case ProviderPerplexity, ProviderOpenRouter, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) ProviderName() Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(c.Provider)))
	if p == "" {
		return ProviderPerplexity
	}
	return p
}

// KeyFor resolves the API key for role; a role key overrides the shared one.
// An empty result means the role runs offline.
func (c Config) KeyFor(role Role) string {
	var roleKey string
	switch role {
	case RoleClient:
		roleKey = c.ClientAPIKey
	case RoleAdvisor:
		roleKey = c.AdvisorAPIKey
	}
	if v := strings.TrimSpace(roleKey); v != "" {
		return v
	}
	return strings.TrimSpace(c.APIKey)
}

func (c Config) ModelFor(role Role) string {
	var roleModel string
	switch role {
	case RoleClient:
		roleModel = c.ClientModel
	case RoleAdvisor:
		roleModel = c.AdvisorModel
	}
	if v := strings.TrimSpace(roleModel); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Model); v != "" {
		return v
	}

	switch c.ProviderName() {
	case ProviderOpenRouter:
		return openrouterx.DefaultModel
	case ProviderGemini:
		return geminix.DefaultModel
	default:
		return perplexityx.DefaultModel
	}
}

func (c Config) PerplexityFor(role Role) perplexityx.Config {
	return perplexityx.Config{
		BaseURL:    strings.TrimSpace(c.BaseURL),
		APIKey:     c.KeyFor(role),
		Model:      c.ModelFor(role),
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
	}
}

// OpenRouterFor leaves token and temperature limits to each request.
func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	return openrouterx.Config{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      c.KeyFor(role),
		Model:       c.ModelFor(role),
		Temperature: 0.7,
		Timeout:     c.Timeout,
		SiteURL:     strings.TrimSpace(c.SiteURL),
		SiteName:    strings.TrimSpace(c.SiteName),
	}
}

func (c Config) GeminiFor(role Role) geminix.Config {
	return geminix.Config{
		APIKey: c.KeyFor(role),
		Model:  c.ModelFor(role),
	}
}
