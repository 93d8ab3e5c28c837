package advisornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

func ReadContext(
	ctx context.Context,
	in *GraphState,
	store contractx.ConversationStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Context = store.GetConversationContext(in.UserID)
	in.Name = in.Context.UserProfile.Name
	return in, nil
}
