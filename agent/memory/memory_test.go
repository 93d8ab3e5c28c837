package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	statex "github.com/tanpawarit/Chative-Finance-Simulator/agent/state"
)

type countingStore struct {
	*statex.MemoryStore

	mu    sync.Mutex
	saves map[string]int
	fail  error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: statex.NewMemoryStore(), saves: map[string]int{}}
}

func (s *countingStore) Save(ctx context.Context, name string, payload []byte) error {
	s.mu.Lock()
	s.saves[name]++
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.MemoryStore.Save(ctx, name, payload)
}

func (s *countingStore) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[name]
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAddMessageKeepsRetentionWindow(t *testing.T) {
	t.Parallel()

	const maxContext = 4
	m := New(statex.NewMemoryStore(), WithMaxContext(maxContext), WithRetention(1), WithSaveDelay(time.Hour))
	for i := 0; i < maxContext+5; i++ {
		m.AddMessage("u1", fmt.Sprintf("msg-%d", i), "ok")
	}

	cc := m.GetConversationContext("u1")
	if cc.TotalInteractions != maxContext {
		t.Fatalf("TotalInteractions = %d, want %d", cc.TotalInteractions, maxContext)
	}
	if got := cc.RecentMessages[0].User; got != "msg-5" {
		t.Fatalf("oldest kept = %q, want msg-5", got)
	}
	if got := cc.RecentMessages[maxContext-1].User; got != "msg-8" {
		t.Fatalf("newest kept = %q, want msg-8", got)
	}
}

func TestContextIsLastNOfLongerStoredWindow(t *testing.T) {
	t.Parallel()

	m := New(statex.NewMemoryStore(), WithMaxContext(3), WithSaveDelay(time.Hour))
	for i := 0; i < 10; i++ {
		m.AddMessage("u1", fmt.Sprintf("msg-%d", i), "ok")
	}

	cc := m.GetConversationContext("u1")
	if cc.TotalInteractions != 6 {
		t.Fatalf("TotalInteractions = %d, want 6 (3 x default retention)", cc.TotalInteractions)
	}
	if len(cc.RecentMessages) != 3 {
		t.Fatalf("len(RecentMessages) = %d, want 3", len(cc.RecentMessages))
	}
	for i, want := range []string{"msg-7", "msg-8", "msg-9"} {
		if cc.RecentMessages[i].User != want {
			t.Fatalf("RecentMessages[%d] = %q, want %q", i, cc.RecentMessages[i].User, want)
		}
	}
	if cc.FirstInteraction == nil || cc.LastInteraction == nil {
		t.Fatal("expected interaction timestamps")
	}
}

func TestEmptyUserContext(t *testing.T) {
	t.Parallel()

	m := New(nil)
	cc := m.GetConversationContext("nobody")
	if cc.TotalInteractions != 0 || len(cc.RecentMessages) != 0 {
		t.Fatalf("unexpected context: %+v", cc)
	}
	if cc.FirstInteraction != nil || cc.LastInteraction != nil {
		t.Fatal("expected no timestamps for unknown user")
	}
	if cc.UserProfile.Name != "" {
		t.Fatalf("unexpected profile: %+v", cc.UserProfile)
	}
}

func TestDebouncedWritesCoalesce(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	m := New(store, WithSaveDelay(30*time.Millisecond))
	for i := 0; i < 5; i++ {
		m.AddMessage("u1", "hola", "hola")
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.count(statex.RecordConversations) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced write never happened")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if got := store.count(statex.RecordConversations); got != 1 {
		t.Fatalf("conversation writes = %d, want 1", got)
	}
}

func TestForceSyncCancelsPendingWrite(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	m := New(store, WithSaveDelay(50*time.Millisecond))
	m.AddMessage("u1", "hola", "hola")

	if err := m.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	if err := m.ForceSync(context.Background()); err != nil {
		t.Fatalf("second ForceSync() error = %v", err)
	}
	time.Sleep(120 * time.Millisecond)

	if got := store.count(statex.RecordConversations); got != 2 {
		t.Fatalf("conversation writes = %d, want 2 (one per ForceSync, none from the timer)", got)
	}
	if got := store.count(statex.RecordUserProfiles); got != 2 {
		t.Fatalf("profile writes = %d, want 2", got)
	}
}

func TestForceSyncReportsPersistenceError(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	store.fail = errors.New("disk full")
	m := New(store, WithSaveDelay(time.Hour))
	m.AddMessage("u1", "hola", "hola")

	err := m.ForceSync(context.Background())
	if !errors.Is(err, contractx.ErrPersistence) {
		t.Fatalf("ForceSync() error = %v, want ErrPersistence", err)
	}
}

func TestUpdateUserProfileWritesImmediately(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	m := New(store, WithSaveDelay(time.Hour))

	name := "María"
	m.UpdateUserProfile("u1", contractx.ProfilePatch{Name: &name})
	if got := store.count(statex.RecordUserProfiles); got != 1 {
		t.Fatalf("profile writes = %d, want 1", got)
	}

	data := contractx.FinancialData{Income: []contractx.Transaction{{ID: "t1", Amount: 3500}}}
	m.UpdateUserProfile("u1", contractx.ProfilePatch{FinancialData: &data})

	p := m.GetUserProfile("u1")
	if p.Name != "María" {
		t.Fatalf("Name = %q, want it untouched by a data-only patch", p.Name)
	}
	if len(p.FinancialData.Income) != 1 || p.FinancialData.Income[0].Amount != 3500 {
		t.Fatalf("unexpected income: %+v", p.FinancialData.Income)
	}
	if p.LastUpdated.IsZero() {
		t.Fatal("LastUpdated not stamped")
	}

	data.Income[0].Amount = 1
	if m.GetUserProfile("u1").FinancialData.Income[0].Amount != 3500 {
		t.Fatal("profile shares memory with the patch")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	m := New(store, WithSaveDelay(time.Hour))
	m.AddMessage("u1", "Soy Ana", "Hola Ana")
	name := "Ana"
	m.UpdateUserProfile("u1", contractx.ProfilePatch{Name: &name})
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reloaded := New(store)
	reloaded.Load(context.Background())
	cc := reloaded.GetConversationContext("u1")
	if cc.TotalInteractions != 1 || cc.RecentMessages[0].Agent != "Hola Ana" {
		t.Fatalf("unexpected reloaded context: %+v", cc)
	}
	if cc.UserProfile.Name != "Ana" {
		t.Fatalf("reloaded Name = %q, want Ana", cc.UserProfile.Name)
	}
}

func TestLoadCorruptRecordStartsEmpty(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, statex.RecordConversations, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, statex.RecordUserProfiles, []byte(`{"u1":{"name":"Luis"}}`)); err != nil {
		t.Fatal(err)
	}

	m := New(store)
	m.Load(ctx)
	if got := m.Stats().TotalUsers; got != 0 {
		t.Fatalf("TotalUsers = %d, want 0 after corrupt record", got)
	}
	if got := m.GetUserProfile("u1").Name; got != "Luis" {
		t.Fatalf("profile Name = %q, want Luis", got)
	}

	m.AddMessage("u1", "hola", "hola")
	if got := m.GetConversationContext("u1").TotalInteractions; got != 1 {
		t.Fatalf("memory unusable after corrupt load: %d", got)
	}
}

func TestStatsAndCleanOldConversations(t *testing.T) {
	t.Parallel()

	clock := &fixedClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := newCountingStore()
	m := New(store, WithClock(clock.Now), WithSaveDelay(time.Hour))

	m.AddMessage("old", "hola", "hola")
	clock.Advance(40 * 24 * time.Hour)
	m.AddMessage("new", "hola", "hola")
	m.AddMessage("new", "otra", "vez")

	s := m.Stats()
	if s.TotalUsers != 2 || s.TotalExchanges != 3 || s.ActiveUsersToday != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}

	removed, err := m.CleanOldConversations(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("CleanOldConversations() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if got := m.Stats().TotalUsers; got != 1 {
		t.Fatalf("TotalUsers after clean = %d, want 1", got)
	}
	if store.count(statex.RecordConversations) != 1 {
		t.Fatal("clean must write the conversations record immediately")
	}
}
