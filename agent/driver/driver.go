package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/persona"
	"github.com/tanpawarit/Chative-Finance-Simulator/agent/stats"
)

const (
	DefaultClientDelay = time.Second
	DefaultTurnDelay   = 1500 * time.Millisecond

	userIDPrefix = "ai_client_"

	msgFinished   = "🏁 Conversación terminada"
	msgAgentError = "❌ Error en la conversación"
)

// Deps are the collaborators of a Driver. NewClient is called once per run
// with the persona drawn for it.
type Deps struct {
	Store     contractx.ConversationStore
	Sink      contractx.EventSink
	Advisor   contractx.ReplyGenerator
	Personas  *persona.Generator
	NewClient func(contractx.Persona) contractx.ClientSimulator
}

type Option func(*Driver)

// WithDelays sets the pause after a client message and the pause after a
// completed turn.
func WithDelays(afterClient, afterTurn time.Duration) Option {
	return func(d *Driver) {
		d.clientDelay = afterClient
		d.turnDelay = afterTurn
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// Driver walks one simulated client through the test plan against the
// advisor and publishes every message to the sink.
//
// The loop runs on the goroutine calling Start or Resume. Pause, Stop and
// Reset may be called from anywhere; they only flip flags that the loop
// checks between remote calls.
type Driver struct {
	store     contractx.ConversationStore
	sink      contractx.EventSink
	advisor   contractx.ReplyGenerator
	personas  *persona.Generator
	newClient func(contractx.Persona) contractx.ClientSimulator

	clientDelay time.Duration
	turnDelay   time.Duration
	now         func() time.Time
	total       int

	mu      sync.Mutex
	running bool
	paused  bool
	looping bool
	loopID  uint64
	run     uint64
	step    int
	pending *string
	persona contractx.Persona
	client  contractx.ClientSimulator
	userID  string
}

func New(deps Deps, opts ...Option) (*Driver, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("conversation store is required")
	case deps.Sink == nil:
		return nil, errors.New("event sink is required")
	case deps.Advisor == nil:
		return nil, errors.New("advisor is required")
	case deps.NewClient == nil:
		return nil, errors.New("client factory is required")
	}
	if deps.Personas == nil {
		deps.Personas = persona.NewGenerator(nil)
	}

	d := &Driver{
		store:       deps.Store,
		sink:        deps.Sink,
		advisor:     deps.Advisor,
		personas:    deps.Personas,
		newClient:   deps.NewClient,
		clientDelay: DefaultClientDelay,
		turnDelay:   DefaultTurnDelay,
		now:         time.Now,
		total:       contractx.TotalSteps(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.newRunLocked()
	return d, nil
}

// Start begins the conversation and blocks until the loop exits: plan
// finished, paused, stopped, reset or ctx done. It is a no-op while running.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.paused = false
	p := d.persona
	active := d.looping
	id := d.claimLoopLocked()
	d.mu.Unlock()

	d.emit(fmt.Sprintf("👤 Cliente IA generado: %s, %d años, %s", p.Name, p.Age, p.Profession),
		contractx.SenderClient, contractx.MessageSystem)

	// A loop from before a Stop or Reset may still be waiting on a remote
	// call; it picks this run up at its next yield point.
	if active {
		return nil
	}
	return d.loop(ctx, id)
}

// Pause takes effect at the next yield point.
func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		d.paused = true
	}
}

// Resume continues a paused run on the calling goroutine. A client message
// emitted before the pause gets its reply; it is not sent again.
func (d *Driver) Resume(ctx context.Context) error {
	d.mu.Lock()
	if !d.running || !d.paused {
		d.mu.Unlock()
		return nil
	}
	d.paused = false
	if d.looping {
		d.mu.Unlock()
		return nil
	}
	id := d.claimLoopLocked()
	d.mu.Unlock()

	return d.loop(ctx, id)
}

// Stop ends the run without emitting stats.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.paused = false
}

// Reset stops the run and prepares a new one with a fresh persona, client
// and user id. A turn still in flight from the old run is discarded.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	d.paused = false
	d.newRunLocked()
}

func (d *Driver) State() contractx.ConversationState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return contractx.ConversationState{
		IsActive:    d.running,
		IsPaused:    d.paused,
		CurrentStep: d.step,
		TotalSteps:  d.total,
	}
}

func (d *Driver) Persona() contractx.Persona {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.persona
}

func (d *Driver) UserID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.userID
}

func (d *Driver) newRunLocked() {
	d.run++
	d.step = 0
	d.pending = nil
	d.persona = d.personas.Generate()
	d.client = d.newClient(d.persona)
	d.userID = userIDPrefix + uuid.NewString()
}

// claimLoopLocked marks a loop as active and returns its id. When a loop is
// already active the id is the current owner's.
func (d *Driver) claimLoopLocked() uint64 {
	if !d.looping {
		d.loopID++
		d.looping = true
	}
	return d.loopID
}

// releaseLocked marks loop id as gone. Deciding to exit and releasing happen
// under the same lock so a concurrent Start or Resume never sees a loop that
// is about to return.
func (d *Driver) releaseLocked(id uint64) {
	if d.loopID == id {
		d.looping = false
	}
}

type turn struct {
	loop    uint64
	run     uint64
	step    int
	pending *string
	client  contractx.ClientSimulator
	userID  string
}

// next snapshots the work for one iteration, or reports that the loop must
// exit.
func (d *Driver) next(id uint64) (turn, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running || d.paused {
		d.releaseLocked(id)
		return turn{}, false
	}
	return turn{loop: id, run: d.run, step: d.step, pending: d.pending, client: d.client, userID: d.userID}, true
}

// verdict is what a loop does after a yield point.
type verdict int

const (
	carryOn verdict = iota
	// rerun drops the turn in hand and snapshots the run started meanwhile.
	rerun
	quit
)

// replacedLocked handles a turn whose run was reset. The loop keeps going
// only when the new run is already started and this loop still owns it.
func (d *Driver) replacedLocked(t turn) verdict {
	if d.running && !d.paused && d.looping && d.loopID == t.loop {
		return rerun
	}
	d.releaseLocked(t.loop)
	return quit
}

// proceed checks that the run owning t is still active and unpaused.
func (d *Driver) proceed(t turn) verdict {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.run != t.run {
		return d.replacedLocked(t)
	}
	if d.running && !d.paused {
		return carryOn
	}
	d.releaseLocked(t.loop)
	return quit
}

func (d *Driver) current(t turn) verdict {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.run != t.run {
		return d.replacedLocked(t)
	}
	return carryOn
}

func (d *Driver) loop(ctx context.Context, id uint64) error {
	defer func() {
		d.mu.Lock()
		d.releaseLocked(id)
		d.mu.Unlock()
	}()

	for {
		t, ok := d.next(id)
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if t.step >= d.total {
			d.finish(t)
			return nil
		}

		var text string
		if t.pending != nil {
			text = *t.pending
		} else {
			msg, fallback := t.client.Message(ctx, t.step)
			switch d.setPending(t, msg) {
			case quit:
				return nil
			case rerun:
				continue
			}
			log.Debug().Int("step", t.step).Bool("fallback", fallback).Msg("client message ready")
			d.emit(msg, contractx.SenderClient, contractx.MessageText)
			text = msg

			if err := sleep(ctx, d.clientDelay); err != nil {
				return err
			}
			switch d.proceed(t) {
			case quit:
				return nil
			case rerun:
				continue
			}
		}

		reply, err := d.advisor.Reply(ctx, t.userID, text)
		switch d.current(t) {
		case quit:
			return nil
		case rerun:
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Error().Err(err).Int("step", t.step).Str("user_id", t.userID).Msg("advisor reply failed")
			d.emit(msgAgentError, contractx.SenderAgent, contractx.MessageSystem)
			d.advance(t)
			continue
		}

		d.emit(reply, contractx.SenderAgent, contractx.MessageText)
		d.store.AddMessage(t.userID, text, reply)
		t.client.AddToHistory(text, reply)
		d.advance(t)

		if err := sleep(ctx, d.turnDelay); err != nil {
			return err
		}
	}
}

func (d *Driver) setPending(t turn, text string) verdict {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.run != t.run {
		return d.replacedLocked(t)
	}
	d.pending = &text
	return carryOn
}

// advance moves past t's step. A reset in between leaves the new run alone.
func (d *Driver) advance(t turn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.run != t.run {
		return
	}
	d.step = t.step + 1
	d.pending = nil
}

func (d *Driver) finish(t turn) {
	d.mu.Lock()
	if d.run != t.run {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.paused = false
	d.releaseLocked(t.loop)
	d.mu.Unlock()

	d.emit(msgFinished, contractx.SenderClient, contractx.MessageSystem)
	summary := stats.Aggregate(d.store.GetUserProfile(t.userID))
	d.sink.Publish(contractx.StatsEvent(summary))

	log.Info().
		Str("user_id", t.userID).
		Int("income", summary.IncomeCount).
		Int("expenses", summary.ExpenseCount).
		Bool("name_detected", summary.NameDetected).
		Msg("conversation finished")
}

func (d *Driver) emit(content string, sender contractx.Sender, kind contractx.MessageType) {
	d.sink.Publish(contractx.MessageEvent(contractx.NewChatMessage(content, sender, kind, d.now())))
}

func sleep(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
