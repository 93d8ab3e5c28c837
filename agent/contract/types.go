package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCurrency  = "soles"
	LabelUnspecified = "No especificado"
)

// Intent is one step of the scripted test plan.
type Intent string

const (
	IntentGreeting          Intent = "greeting"
	IntentIncomeReport      Intent = "income_report"
	IntentExpenseReport     Intent = "expense_report"
	IntentFinancialQuestion Intent = "financial_question"
	IntentGoalSetting       Intent = "goal_setting"
	IntentAdviceRequest     Intent = "advice_request"
	IntentFollowUp          Intent = "follow_up"
	IntentFarewell          Intent = "farewell"
)

var testPlan = [...]Intent{
	IntentGreeting,
	IntentIncomeReport,
	IntentExpenseReport,
	IntentFinancialQuestion,
	IntentGoalSetting,
	IntentAdviceRequest,
	IntentFollowUp,
	IntentFarewell,
}

// TestPlan returns a copy of the fixed intent sequence every run walks through.
func TestPlan() []Intent {
	out := make([]Intent, len(testPlan))
	copy(out, testPlan[:])
	return out
}

// TotalSteps is the length of the test plan.
func TotalSteps() int {
	return len(testPlan)
}

type Persona struct {
	Name               string `json:"name"`
	Age                int    `json:"age"`
	Profession         string `json:"profession"`
	Personality        string `json:"personality"`
	FinancialSituation string `json:"financial_situation"`
}

type Exchange struct {
	Timestamp     time.Time `json:"timestamp"`
	User          string    `json:"user"`
	Agent         string    `json:"agent"`
	FormattedTime string    `json:"formatted_time"`
}

// Transaction is a single income or expense entry. Label is the income source
// or the expense category.
type Transaction struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Label       string    `json:"label"`
	Date        time.Time `json:"date"`
	AIProcessed bool      `json:"ai_processed"`
}

// NewTransaction validates amount > 0 and fills defaults for blank fields.
func NewTransaction(amount float64, label, currency string, now time.Time) (Transaction, error) {
	if !(amount > 0) {
		return Transaction{}, fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = LabelUnspecified
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	return Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Currency:    currency,
		Label:       label,
		Date:        now.UTC(),
		AIProcessed: true,
	}, nil
}

type FinancialData struct {
	Income   []Transaction `json:"income"`
	Expenses []Transaction `json:"expenses"`
	Goals    []string      `json:"goals"`
}

func (f FinancialData) Clone() FinancialData {
	return FinancialData{
		Income:   append([]Transaction(nil), f.Income...),
		Expenses: append([]Transaction(nil), f.Expenses...),
		Goals:    append([]string(nil), f.Goals...),
	}
}

type UserProfile struct {
	Name          string        `json:"name,omitempty"`
	FinancialData FinancialData `json:"financial_data"`
	LastUpdated   time.Time     `json:"last_updated"`
}

func (p UserProfile) Clone() UserProfile {
	p.FinancialData = p.FinancialData.Clone()
	return p
}

// ProfilePatch is a shallow update: nil fields are left untouched, non-nil
// fields replace the stored value.
type ProfilePatch struct {
	Name          *string
	FinancialData *FinancialData
}

type ConversationState struct {
	IsActive    bool `json:"is_active"`
	IsPaused    bool `json:"is_paused"`
	CurrentStep int  `json:"current_step"`
	TotalSteps  int  `json:"total_steps"`
}

func NewConversationState(active, paused bool, step, total int) (ConversationState, error) {
	if total <= 0 || step < 0 || step > total {
		return ConversationState{}, fmt.Errorf("%w: step=%d total=%d", ErrInvalidStep, step, total)
	}
	return ConversationState{
		IsActive:    active,
		IsPaused:    paused,
		CurrentStep: step,
		TotalSteps:  total,
	}, nil
}

// ConversationContext is what the advisor sees of a user before replying.
type ConversationContext struct {
	RecentMessages    []Exchange  `json:"recent_messages"`
	UserProfile       UserProfile `json:"user_profile"`
	TotalInteractions int         `json:"total_interactions"`
	FirstInteraction  *time.Time  `json:"first_interaction,omitempty"`
	LastInteraction   *time.Time  `json:"last_interaction,omitempty"`
}

type Sender string

const (
	SenderClient Sender = "client"
	SenderAgent  Sender = "agent"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageSystem MessageType = "system"
)

type ChatMessage struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

func NewChatMessage(content string, sender Sender, kind MessageType, now time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: now.UTC(),
		Type:      kind,
	}
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type TypedTransaction struct {
	Transaction
	Type TransactionType `json:"type"`
}

type Stats struct {
	IncomeCount   int                `json:"income_detected"`
	ExpenseCount  int                `json:"expenses_detected"`
	NameDetected  bool               `json:"name_detected"`
	Transactions  []TypedTransaction `json:"transactions"`
	TotalIncome   float64            `json:"total_income"`
	TotalExpenses float64            `json:"total_expenses"`
	Balance       float64            `json:"balance"`
}

type EventKind string

const (
	EventMessage EventKind = "message"
	EventStats   EventKind = "stats"
)

// Event is what the driver emits towards the UI; exactly one of Message and
// Stats is set, matching Kind.
type Event struct {
	Kind    EventKind    `json:"kind"`
	Message *ChatMessage `json:"message,omitempty"`
	Stats   *Stats       `json:"stats,omitempty"`
}

func MessageEvent(msg ChatMessage) Event {
	return Event{Kind: EventMessage, Message: &msg}
}

func StatsEvent(stats Stats) Event {
	return Event{Kind: EventStats, Stats: &stats}
}
