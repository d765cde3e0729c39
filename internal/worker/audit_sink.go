package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ctks/admin-console/internal/audit"
	"github.com/ctks/admin-console/internal/kafka"
	"github.com/ctks/admin-console/internal/metrics"
	"github.com/ctks/admin-console/internal/model"
	"github.com/ctks/admin-console/internal/repository"
)

// Source is the part of the Kafka consumer the sink needs.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// AuditSink projects the console.audit topic into ClickHouse:
// - fetches outbox payloads from Kafka,
// - batches them by size/time into one insert,
// - commits offsets only after the batch is stored (at-least-once; the
//   table collapses duplicates by id).
type AuditSink struct {
	Source Source
	Store  repository.CHAuditRepository
	Log    *zap.Logger

	BatchSize int
	BatchWait time.Duration
}

func NewAuditSink(src Source, store repository.CHAuditRepository, log *zap.Logger) *AuditSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditSink{
		Source:    src,
		Store:     store,
		Log:       log,
		BatchSize: 200,
		BatchWait: 500 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled, then flushes what it holds.
func (w *AuditSink) Run(ctx context.Context) error {
	if w.BatchSize <= 0 {
		w.BatchSize = 200
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 500 * time.Millisecond
	}

	msgCh := make(chan kafka.Message, w.BatchSize)
	go w.fetch(ctx, msgCh)

	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var (
		events []model.AuditEvent
		held   []kafka.Message // every fetched message, poison included, in order
	)
	flush := func(ctx context.Context) bool {
		if len(held) == 0 {
			return true
		}
		if err := w.Store.InsertBatch(ctx, events); err != nil {
			metrics.AuditEventsTotal.WithLabelValues("project_failed").Add(float64(len(events)))
			w.Log.Warn("audit sink: insert batch", zap.Int("events", len(events)), zap.Error(err))
			return false
		}
		metrics.AuditEventsTotal.WithLabelValues("projected").Add(float64(len(events)))
		if err := w.Source.Commit(ctx, held...); err != nil {
			w.Log.Warn("audit sink: commit", zap.Int("messages", len(held)), zap.Error(err))
		}
		w.Log.Debug("audit sink flushed", zap.Int("events", len(events)), zap.Int("messages", len(held)))
		events, held = events[:0], held[:0]
		return true
	}

	in := msgCh
	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx)
			cancel()
			return nil

		case m, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			held = append(held, m)
			ev, err := audit.Decode(m.Value)
			if err != nil {
				metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
				w.Log.Warn("audit sink: poison message",
					zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
			} else {
				events = append(events, ev)
			}
			if len(held) >= w.BatchSize && !flush(ctx) {
				// store is failing: stop taking messages until the next tick
				in = nil
			}

		case <-tick.C:
			if flush(ctx) {
				in = msgCh
			}
		}
	}
}

func (w *AuditSink) fetch(ctx context.Context, out chan<- kafka.Message) {
	defer close(out)
	for {
		m, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Log.Warn("audit sink: kafka fetch", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}
