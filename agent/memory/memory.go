package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	statex "github.com/tanpawarit/Chative-Finance-Simulator/agent/state"
)

const (
	DefaultMaxContext = 10
	DefaultRetention  = 2
	DefaultSaveDelay  = 2 * time.Second

	formattedTimeLayout = "02/01/2006 15:04"
	writeTimeout        = 10 * time.Second
)

type Option func(*Memory)

// WithMaxContext sets how many exchanges GetConversationContext returns.
func WithMaxContext(n int) Option {
	return func(m *Memory) {
		if n > 0 {
			m.maxContext = n
		}
	}
}

// WithRetention sets the stored window as a multiple of the context size.
func WithRetention(factor int) Option {
	return func(m *Memory) {
		if factor > 0 {
			m.retention = factor
		}
	}
}

func WithSaveDelay(d time.Duration) Option {
	return func(m *Memory) {
		if d >= 0 {
			m.saveDelay = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// Memory keeps per-user exchanges and profiles and persists them through a
// RecordStore. Conversation writes are debounced; profile writes are not.
//
// Lifecycle: New, Load, then mutate, and Close (or ForceSync) before exit.
type Memory struct {
	store      statex.RecordStore
	maxContext int
	retention  int
	saveDelay  time.Duration
	now        func() time.Time

	mu            sync.Mutex
	conversations map[string][]contractx.Exchange
	profiles      map[string]contractx.UserProfile
	timer         *time.Timer
	gen           uint64
}

var _ contractx.ConversationStore = (*Memory)(nil)

type Stats struct {
	TotalUsers       int `json:"total_users"`
	TotalExchanges   int `json:"total_exchanges"`
	ActiveUsersToday int `json:"active_users_today"`
}

func New(store statex.RecordStore, opts ...Option) *Memory {
	m := &Memory{
		store:         store,
		maxContext:    DefaultMaxContext,
		retention:     DefaultRetention,
		saveDelay:     DefaultSaveDelay,
		now:           time.Now,
		conversations: make(map[string][]contractx.Exchange),
		profiles:      make(map[string]contractx.UserProfile),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.store == nil {
		m.store = statex.NewMemoryStore()
	}
	return m
}

// Load replaces the in-memory state with what the store holds. Missing or
// unreadable records leave that part empty.
func (m *Memory) Load(ctx context.Context) {
	conversations := make(map[string][]contractx.Exchange)
	loadRecord(ctx, m.store, statex.RecordConversations, &conversations)

	profiles := make(map[string]contractx.UserProfile)
	loadRecord(ctx, m.store, statex.RecordUserProfiles, &profiles)

	m.mu.Lock()
	defer m.mu.Unlock()
	if conversations == nil {
		conversations = make(map[string][]contractx.Exchange)
	}
	if profiles == nil {
		profiles = make(map[string]contractx.UserProfile)
	}
	m.conversations = conversations
	m.profiles = profiles

	log.Debug().
		Int("users", len(conversations)).
		Int("profiles", len(profiles)).
		Msg("memory loaded")
}

func loadRecord[T any](ctx context.Context, store statex.RecordStore, name string, out *T) {
	raw, err := store.Load(ctx, name)
	if errors.Is(err, statex.ErrRecordNotFound) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("record", name).Msg("load record failed, starting empty")
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		var zero T
		*out = zero
		log.Warn().Err(err).Str("record", name).Msg("record is corrupt, starting empty")
	}
}

// AddMessage appends one exchange, trims the user's history to the
// retention window and schedules a conversation write.
func (m *Memory) AddMessage(userID, userMessage, agentReply string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	list := append(m.conversations[userID], contractx.Exchange{
		Timestamp:     now.UTC(),
		User:          userMessage,
		Agent:         agentReply,
		FormattedTime: now.Format(formattedTimeLayout),
	})
	if window := m.maxContext * m.retention; len(list) > window {
		list = append([]contractx.Exchange(nil), list[len(list)-window:]...)
	}
	m.conversations[userID] = list

	m.scheduleConversationsLocked()
}

func (m *Memory) GetConversationContext(userID string) contractx.ConversationContext {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.conversations[userID]
	recent := list
	if len(recent) > m.maxContext {
		recent = recent[len(recent)-m.maxContext:]
	}

	cc := contractx.ConversationContext{
		RecentMessages:    append([]contractx.Exchange{}, recent...),
		UserProfile:       m.profileLocked(userID),
		TotalInteractions: len(list),
	}
	if len(list) > 0 {
		first, last := list[0].Timestamp, list[len(list)-1].Timestamp
		cc.FirstInteraction = &first
		cc.LastInteraction = &last
	}
	return cc
}

func (m *Memory) GetUserProfile(userID string) contractx.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileLocked(userID)
}

func (m *Memory) profileLocked(userID string) contractx.UserProfile {
	p, ok := m.profiles[userID]
	if !ok {
		return contractx.UserProfile{
			FinancialData: contractx.FinancialData{
				Income:   []contractx.Transaction{},
				Expenses: []contractx.Transaction{},
				Goals:    []string{},
			},
		}
	}
	return p.Clone()
}

// UpdateUserProfile merges patch into the stored profile and writes the
// profile record right away.
func (m *Memory) UpdateUserProfile(userID string, patch contractx.ProfilePatch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profileLocked(userID)
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.FinancialData != nil {
		p.FinancialData = patch.FinancialData.Clone()
	}
	p.LastUpdated = m.now().UTC()
	m.profiles[userID] = p

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := m.saveLocked(ctx, statex.RecordUserProfiles, m.profiles); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("profile write failed")
	}
}

// ForceSync cancels the pending debounced write and writes both records now.
func (m *Memory) ForceSync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelPendingLocked()

	return errors.Join(
		m.saveLocked(ctx, statex.RecordConversations, m.conversations),
		m.saveLocked(ctx, statex.RecordUserProfiles, m.profiles),
	)
}

func (m *Memory) Close(ctx context.Context) error {
	return m.ForceSync(ctx)
}

func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var s Stats
	s.TotalUsers = len(m.conversations)
	for _, list := range m.conversations {
		s.TotalExchanges += len(list)
		if len(list) > 0 && sameDay(list[len(list)-1].Timestamp.In(now.Location()), now) {
			s.ActiveUsersToday++
		}
	}
	return s
}

// CleanOldConversations drops exchanges older than the cutoff and users left
// without any. It returns the number of exchanges removed.
func (m *Memory) CleanOldConversations(ctx context.Context, olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-olderThan)
	removed := 0
	for userID, list := range m.conversations {
		kept := list[:0:0]
		for _, ex := range list {
			if ex.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, ex)
		}
		if len(kept) == 0 {
			delete(m.conversations, userID)
			continue
		}
		m.conversations[userID] = kept
	}
	if removed == 0 {
		return 0, nil
	}

	m.cancelPendingLocked()
	if err := m.saveLocked(ctx, statex.RecordConversations, m.conversations); err != nil {
		return removed, err
	}
	log.Info().Int("removed", removed).Msg("old conversations cleaned")
	return removed, nil
}

func (m *Memory) scheduleConversationsLocked() {
	m.cancelPendingLocked()
	gen := m.gen
	m.timer = time.AfterFunc(m.saveDelay, func() {
		m.flushConversations(gen)
	})
}

// cancelPendingLocked stops the debounce timer and bumps the generation so a
// callback that already fired becomes a no-op.
func (m *Memory) cancelPendingLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Memory) flushConversations(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.timer = nil

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := m.saveLocked(ctx, statex.RecordConversations, m.conversations); err != nil {
		log.Warn().Err(err).Msg("debounced conversation write failed")
	}
}

func (m *Memory) saveLocked(ctx context.Context, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", contractx.ErrPersistence, name, err)
	}
	if err := m.store.Save(ctx, name, payload); err != nil {
		return fmt.Errorf("%w: save %s: %v", contractx.ErrPersistence, name, err)
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
