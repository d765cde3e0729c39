package console

import (
	"sync"
	"time"
)

// Debouncer runs the last triggered func once the triggers stop for d.
type Debouncer struct {
	mu    sync.Mutex
	d     time.Duration
	timer *time.Timer
}

func NewDebouncer(d time.Duration) *Debouncer { return &Debouncer{d: d} }

func (db *Debouncer) Trigger(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	if db.d <= 0 {
		db.timer = nil
		go fn()
		return
	}
	db.timer = time.AfterFunc(db.d, fn)
}

// Stop drops a pending trigger.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
