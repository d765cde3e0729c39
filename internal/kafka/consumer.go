package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ctks/admin-console/internal/config"
)

type Message = kafka.Message

// Consumer is a group reader on one topic with manual commits.
type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(c config.KafkaConfig, topic string) *Consumer {
	minBytes := c.MinBytes
	if minBytes <= 0 {
		minBytes = 1 << 10
	}
	maxBytes := c.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	ci := time.Duration(c.CommitInterval) * time.Millisecond
	if ci <= 0 {
		ci = time.Second
	}

	return &Consumer{r: kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          topic,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		CommitInterval: ci,
		MaxWait:        250 * time.Millisecond,
	})}
}

func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return c.r.CommitMessages(ctx, msgs...)
}

func (c *Consumer) Close() error { return c.r.Close() }
