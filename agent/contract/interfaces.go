package contract

import "context"

type SearchOptions struct {
	ContextSize  string   `json:"search_context_size,omitempty"`
	DomainFilter []string `json:"search_domain_filter,omitempty"`
}

type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	Search       *SearchOptions
}

// TextGenerator is the boundary to a remote language model. Any error means
// the caller should fall back to local text.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ClientSimulator produces the synthetic client's message for a plan step.
type ClientSimulator interface {
	Persona() Persona
	Message(ctx context.Context, step int) (text string, fallback bool)
	AddToHistory(userMessage, agentReply string)
}

// ReplyGenerator produces the advisor's answer and records any facts found
// in the client's message.
type ReplyGenerator interface {
	Reply(ctx context.Context, userID string, message string) (string, error)
}

type EventSink interface {
	Publish(ev Event)
}

// ConversationStore is the part of the memory the driver and advisor rely on.
type ConversationStore interface {
	AddMessage(userID, userMessage, agentReply string)
	GetConversationContext(userID string) ConversationContext
	GetUserProfile(userID string) UserProfile
	UpdateUserProfile(userID string, patch ProfilePatch)
}
