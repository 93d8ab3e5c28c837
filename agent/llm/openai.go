package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
// With search enabled it forwards Perplexity's web search options as extra
// request fields.
type OpenAIGenerator struct {
	client *openaisdk.Client
	model  string
	search bool
}

var _ contractx.TextGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(client *openaisdk.Client, model string, search bool) (*OpenAIGenerator, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return &OpenAIGenerator{client: client, model: strings.TrimSpace(model), search: search}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(g.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(req.SystemPrompt),
			openaisdk.UserMessage(req.UserPrompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openaisdk.Float(req.Temperature)
	}

	var opts []option.RequestOption
	if g.search && req.Search != nil {
		if req.Search.ContextSize != "" {
			opts = append(opts, option.WithJSONSet("web_search_options", map[string]any{
				"search_context_size": req.Search.ContextSize,
			}))
		}
		if len(req.Search.DomainFilter) > 0 {
			opts = append(opts, option.WithJSONSet("search_domain_filter", req.Search.DomainFilter))
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrRemoteCall, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", contractx.ErrEmptyCompletion)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty message", contractx.ErrEmptyCompletion)
	}
	return content, nil
}
