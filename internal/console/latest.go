package console

import (
	"context"
	"sync"
)

// Latest cancels superseded fetches. Each resource key has at most one
// current fetch; starting another cancels the previous one, and a response
// that arrives after being superseded must be discarded.
type Latest struct {
	mu     sync.Mutex
	seq    map[string]uint64
	cancel map[string]context.CancelFunc
}

func NewLatest() *Latest {
	return &Latest{seq: map[string]uint64{}, cancel: map[string]context.CancelFunc{}}
}

// Ticket identifies one fetch.
type Ticket struct {
	l   *Latest
	key string
	n   uint64
}

// Begin starts a fetch for key and returns its context and ticket. Callers
// must call Done when the fetch returns.
func (l *Latest) Begin(parent context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)
	l.mu.Lock()
	if prev := l.cancel[key]; prev != nil {
		prev()
	}
	l.seq[key]++
	n := l.seq[key]
	l.cancel[key] = cancel
	l.mu.Unlock()
	return ctx, Ticket{l: l, key: key, n: n}
}

// Current reports whether no newer fetch for the key has started.
func (t Ticket) Current() bool {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	return t.l.seq[t.key] == t.n
}

// Done releases the fetch's context.
func (t Ticket) Done() {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	if t.l.seq[t.key] == t.n {
		if c := t.l.cancel[t.key]; c != nil {
			c()
		}
		delete(t.l.cancel, t.key)
	}
}

// Settle maps the outcome of a fetch: superseded fetches yield ErrStale
// whatever the call returned.
func (t Ticket) Settle(err error) error {
	if !t.Current() {
		return ErrStale
	}
	return err
}
