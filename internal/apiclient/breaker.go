package apiclient

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Breaker fast-fails calls while the backend is unreachable so every screen
// does not wait on its own dead connection. After the cooldown one trial
// call goes out; its verdict closes or reopens the breaker.
type Breaker struct {
	mu       sync.Mutex
	limit    int
	cooldown time.Duration
	fails    int
	openedAt time.Time // zero while closed
	trial    bool
	now      func() time.Time
}

func NewBreaker(limit int, cooldown time.Duration) *Breaker {
	if limit <= 0 {
		limit = 5
	}
	if cooldown <= 0 {
		cooldown = 15 * time.Second
	}
	return &Breaker{limit: limit, cooldown: cooldown, now: time.Now}
}

// Allow admits a call. While open it admits nothing until the cooldown has
// passed, then a single trial at a time.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openedAt.IsZero() {
		return true
	}
	if b.trial || b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	b.trial = true
	return true
}

// Record settles a call admitted by Allow with its outcome.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch verdictOf(err) {
	case verdictNone:
		b.trial = false
	case verdictUp:
		b.fails = 0
		b.openedAt = time.Time{}
		b.trial = false
	case verdictDown:
		b.fails++
		if b.trial || b.fails >= b.limit {
			b.openedAt = b.now()
		}
		b.trial = false
	}
}

type verdict int

const (
	verdictNone verdict = iota // caller gave up; says nothing about the backend
	verdictUp
	verdictDown
)

// verdictOf judges the backend by a call's outcome. Transport failures and
// 5xx answers count against it; any other answer, 4xx included, proves it up.
func verdictOf(err error) verdict {
	if err == nil {
		return verdictUp
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Kind == KindTransport:
			return verdictDown
		case apiErr.Kind == KindServer && apiErr.Status >= 500:
			return verdictDown
		default:
			return verdictUp
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return verdictNone
	}
	return verdictDown
}
