package advisornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	extractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/extract"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = errors.New("user id is empty")
)

type GraphInput struct {
	UserID string
	Text   string
}

type GraphOutput struct {
	Reply string
	Facts extractx.Facts
	Local bool
}

// GraphState is threaded through every node of the advisor graph.
type GraphState struct {
	UserID string
	Text   string
	Now    time.Time

	Context contractx.ConversationContext

	// Reply is empty until a remote generator answers; finalize_reply
	// falls back to a local reply in that case.
	Reply     string
	RemoteErr error

	Facts extractx.Facts
	Name  string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		UserID: userID,
		Text:   text,
		Now:    nowFn().UTC(),
	}, nil
}
