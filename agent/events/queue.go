package events

import (
	"context"
	"errors"
	"sync"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

var ErrClosed = errors.New("event queue closed")

// Queue is an unbounded FIFO of simulation events. Publish never blocks the
// producer; consumers pull with Next or receive through Subscribe.
type Queue struct {
	mu     sync.Mutex
	items  []contractx.Event
	notify chan struct{}
	closed bool
}

var _ contractx.EventSink = (*Queue)(nil)

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{})}
}

// Publish appends ev. Events published after Close are dropped.
func (q *Queue) Publish(ev contractx.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, ev)
	q.wakeLocked()
}

// Next blocks until an event is available, ctx is done or the queue is
// closed and drained.
func (q *Queue) Next(ctx context.Context) (contractx.Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = contractx.Event{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, nil
		}
		if q.closed {
			q.mu.Unlock()
			return contractx.Event{}, ErrClosed
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return contractx.Event{}, ctx.Err()
		case <-wait:
		}
	}
}

// Subscribe pumps events into the returned channel until ctx is done or the
// queue is closed and drained.
func (q *Queue) Subscribe(ctx context.Context) <-chan contractx.Event {
	out := make(chan contractx.Event)
	go func() {
		defer close(out)
		for {
			ev, err := q.Next(ctx)
			if err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.wakeLocked()
}

func (q *Queue) wakeLocked() {
	close(q.notify)
	q.notify = make(chan struct{})
}
