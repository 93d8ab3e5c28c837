package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

// ChatModelGenerator runs an eino chat model behind a compiled
// messages -> model -> content graph.
type ChatModelGenerator struct {
	runner compose.Runnable[contractx.GenerateRequest, string]
}

var _ contractx.TextGenerator = (*ChatModelGenerator)(nil)

func NewChatModelGenerator(ctx context.Context, chatModel einomodel.BaseChatModel, name string) (*ChatModelGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	runner, err := compileChatModelGraph(ctx, chatModel, name)
	if err != nil {
		return nil, err
	}
	return &ChatModelGenerator{runner: runner}, nil
}

func (g *ChatModelGenerator) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	var modelOpts []einomodel.Option
	if req.MaxTokens > 0 {
		modelOpts = append(modelOpts, einomodel.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		modelOpts = append(modelOpts, einomodel.WithTemperature(float32(req.Temperature)))
	}

	out, err := g.runner.Invoke(ctx, req, compose.WithChatModelOption(modelOpts...))
	if err != nil {
		if errors.Is(err, contractx.ErrEmptyCompletion) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", contractx.ErrRemoteCall, err)
	}
	return out, nil
}

func compileChatModelGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	name string,
) (compose.Runnable[contractx.GenerateRequest, string], error) {
	graph := compose.NewGraph[contractx.GenerateRequest, string]()

	if err := graph.AddLambdaNode("messages",
		compose.InvokableLambda(func(ctx context.Context, req contractx.GenerateRequest) ([]*schema.Message, error) {
			if strings.TrimSpace(req.UserPrompt) == "" {
				return nil, fmt.Errorf("%w: user prompt is required", contractx.ErrValidation)
			}
			msgs := make([]*schema.Message, 0, 2)
			if sys := strings.TrimSpace(req.SystemPrompt); sys != "" {
				msgs = append(msgs, schema.SystemMessage(sys))
			}
			return append(msgs, schema.UserMessage(req.UserPrompt)), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add messages node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddLambdaNode("content",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil {
				return "", fmt.Errorf("%w: nil message", contractx.ErrEmptyCompletion)
			}
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return "", fmt.Errorf("%w: empty message", contractx.ErrEmptyCompletion)
			}
			return content, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add content node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "messages"},
		{"messages", "model"},
		{"model", "content"},
		{"content", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	graphName := "llm.generate"
	if name = strings.TrimSpace(name); name != "" {
		graphName += "." + name
	}
	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile chat model graph: %w", err)
	}
	return runner, nil
}
