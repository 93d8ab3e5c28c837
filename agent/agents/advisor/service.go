package advisor

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	nodex "github.com/tanpawarit/Chative-Finance-Simulator/agent/nodes"
	promptx "github.com/tanpawarit/Chative-Finance-Simulator/agent/prompt"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidUser    = nodex.ErrInvalidUser
)

type Option func(*Service)

// WithRand fixes the source used to pick among the local reply variants.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service is SofIA, the financial advisor answering the simulated client.
type Service struct {
	store   contractx.ConversationStore
	gen     contractx.TextGenerator
	prompts promptx.PromptSet

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

var _ contractx.ReplyGenerator = (*Service)(nil)

// New compiles the reply graph. gen may be nil, in which case every reply is
// produced locally.
func New(store contractx.ConversationStore, gen contractx.TextGenerator, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("conversation store is required")
	}

	s := &Service{
		store:   store,
		gen:     gen,
		prompts: promptx.LoadPromptSet(),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	graphRunner, err := s.compileReplyGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// Remote reports whether a language model backs the replies.
func (s *Service) Remote() bool {
	return s.gen != nil
}

func (s *Service) Reply(ctx context.Context, userID string, message string) (string, error) {
	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID: userID,
		Text:   message,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (s *Service) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

type FinancialSummary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Balance       float64 `json:"balance"`
	IncomeCount   int     `json:"income_count"`
	ExpenseCount  int     `json:"expense_count"`
}

func (s *Service) FinancialSummary(userID string) FinancialSummary {
	fd := s.store.GetUserProfile(userID).FinancialData

	income := decimal.Zero
	for _, tx := range fd.Income {
		income = income.Add(decimal.NewFromFloat(tx.Amount))
	}
	expenses := decimal.Zero
	for _, tx := range fd.Expenses {
		expenses = expenses.Add(decimal.NewFromFloat(tx.Amount))
	}

	return FinancialSummary{
		TotalIncome:   income.InexactFloat64(),
		TotalExpenses: expenses.InexactFloat64(),
		Balance:       income.Sub(expenses).InexactFloat64(),
		IncomeCount:   len(fd.Income),
		ExpenseCount:  len(fd.Expenses),
	}
}
