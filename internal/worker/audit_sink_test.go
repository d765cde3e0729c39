package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/kafka"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/repository"
)

type fakeSource struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []int64
}

func (s *fakeSource) Fetch(ctx context.Context) (kafka.Message, error) {
	for {
		s.mu.Lock()
		if len(s.pending) > 0 {
			m := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return m, nil
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func (s *fakeSource) Commit(_ context.Context, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.committed = append(s.committed, m.Offset)
	}
	return nil
}

func (s *fakeSource) Committed() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.committed...)
}

type fakeStore struct {
	mu       sync.Mutex
	failures int
	rows     []model.AuditEvent
}

func (s *fakeStore) InsertBatch(_ context.Context, events []model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("clickhouse down")
	}
	s.rows = append(s.rows, events...)
	return nil
}

func (s *fakeStore) List(context.Context, repository.AuditFilter) ([]model.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditEvent(nil), s.rows...), nil
}

func (s *fakeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func messages(t *testing.T, n int) []kafka.Message {
	t.Helper()
	out := make([]kafka.Message, 0, n+1)
	for i := 0; i < n; i++ {
		raw, err := json.Marshal(audit.NewEvent("root", "vendor", "approve", "V1", ""))
		require.NoError(t, err)
		out = append(out, kafka.Message{Offset: int64(len(out)), Value: raw})
	}
	return out
}

func runSink(t *testing.T, w *AuditSink) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestAuditSink_ProjectsAndCommitsAfterStore(t *testing.T) {
	msgs := messages(t, 3)
	poison := kafka.Message{Offset: 3, Value: []byte("{broken")}
	src := &fakeSource{pending: append(msgs, poison)}
	store := &fakeStore{}

	w := NewAuditSink(src, store, nil)
	w.BatchSize = 2
	w.BatchWait = 20 * time.Millisecond
	stop := runSink(t, w)

	require.Eventually(t, func() bool { return len(src.Committed()) == 4 }, 2*time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, 3, store.Len(), "poison is skipped")
	assert.Equal(t, []int64{0, 1, 2, 3}, src.Committed(), "poison offset is committed in order")
}

func TestAuditSink_StoreFailureHoldsOffsets(t *testing.T) {
	src := &fakeSource{pending: messages(t, 2)}
	store := &fakeStore{failures: 2}

	w := NewAuditSink(src, store, nil)
	w.BatchSize = 10
	w.BatchWait = 15 * time.Millisecond
	stop := runSink(t, w)

	require.Eventually(t, func() bool { return store.Len() == 2 }, 2*time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, []int64{0, 1}, src.Committed())
}

func TestAuditSink_FlushesOnShutdown(t *testing.T) {
	src := &fakeSource{pending: messages(t, 1)}
	store := &fakeStore{}

	w := NewAuditSink(src, store, nil)
	w.BatchSize = 100
	w.BatchWait = time.Hour
	stop := runSink(t, w)

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.pending) == 0
	}, time.Second, 2*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, store.Len())
	stop()

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []int64{0}, src.Committed())
}
