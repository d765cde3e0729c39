package console

import (
	"fmt"
	"sync"
)

// InFlight is the per-row operation arena: row id -> running operation.
// Rows are independent; a second operation on a busy row is refused.
type InFlight struct {
	mu sync.Mutex
	m  map[string]string
}

func NewInFlight() *InFlight { return &InFlight{m: map[string]string{}} }

// Begin marks id busy with op. The returned func clears the mark.
func (f *InFlight) Begin(id, op string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.m[id]; ok {
		return nil, fmt.Errorf("%w (%s running on %s)", ErrRowBusy, cur, id)
	}
	f.m[id] = op
	return func() {
		f.mu.Lock()
		delete(f.m, id)
		f.mu.Unlock()
	}, nil
}

func (f *InFlight) Op(id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.m[id]
	return op, ok
}

// Snapshot copies the arena for rendering disabled buttons.
func (f *InFlight) Snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.m))
	for k, v := range f.m {
		out[k] = v
	}
	return out
}
