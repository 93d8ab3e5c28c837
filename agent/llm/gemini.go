package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

var _ contractx.TextGenerator = (*GeminiGenerator)(nil)

func NewGeminiGenerator(client *genai.Client, model string) (*GeminiGenerator, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	return &GeminiGenerator{client: client, model: strings.TrimSpace(model)}, nil
}

// Generate ignores search options; Gemini has no domain-filtered search here.
func (g *GeminiGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	m := g.client.GenerativeModel(g.model)
	if req.Temperature > 0 {
		m.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if sys := strings.TrimSpace(req.SystemPrompt); sys != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(sys)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrRemoteCall, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", contractx.ErrEmptyCompletion)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("%w: empty candidate", contractx.ErrEmptyCompletion)
	}
	return content, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
