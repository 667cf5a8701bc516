package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const defaultHandlerRetries = 5

// Consumer reads events from the topic and hands them to the registered
// handler. A failing handler is retried with backoff while the partition
// waits. An event that still fails is logged and committed, so delivery is
// at-most-once past the retries.
type Consumer struct {
	reader     KafkaReader
	logger     *zap.Logger
	handler    func(context.Context, Event) error
	newBackOff func() backoff.BackOff
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), logger)
}

func newConsumer(reader KafkaReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		logger: logger.Named("kafka_consumer"),
		handler: func(context.Context, Event) error {
			return nil
		},
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), defaultHandlerRetries)
		},
	}
}

func (c *Consumer) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Consumer) run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			// the reader reports io.EOF once closed
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			c.logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to parse event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			c.commit(ctx, msg, "")
			continue
		}

		if err := c.handle(ctx, event); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Dropping event after retries",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.String("company_id", event.CompanyID),
				zap.Int64("offset", msg.Offset),
			)
		}

		c.commit(ctx, msg, event.Type)
	}
}

func (c *Consumer) handle(ctx context.Context, event Event) error {
	policy := backoff.WithContext(c.newBackOff(), ctx)
	return backoff.RetryNotify(func() error {
		return c.handler(ctx, event)
	}, policy, func(err error, wait time.Duration) {
		c.logger.Warn("Failed to handle event, retrying",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.Duration("wait", wait),
		)
	})
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, eventType EventType) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
		)
	}
}

func (c *Consumer) RegisterHandler(fn func(context.Context, Event) error) {
	c.handler = fn
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}
