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

const maxFetchBackOff = 10 * time.Second

// KafkaReader is the subset of *kafka.Reader used by the Consumer.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads analysis requests from a topic and hands them to a handler.
type Consumer struct {
	reader  KafkaReader
	logger  *zap.Logger
	handler func(context.Context, Event) error

	newBackOff func() backoff.BackOff
	sleep      func(ctx context.Context, d time.Duration) error

	cancel context.CancelFunc
	// done is closed when the fetch loop has returned.
	done chan struct{}
}

// NewConsumer consumes analysis_requested events from topic.
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
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxInterval = maxFetchBackOff
			b.MaxElapsedTime = 0
			return b
		},
		sleep: sleepContext,
	}
}

// Start processes messages in a goroutine until ctx is cancelled or Close
// is called. Messages are handled one at a time.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.run(ctx)
	}()
}

// Wait blocks until a started fetch loop has returned.
func (c *Consumer) Wait() {
	if c.done != nil {
		<-c.done
	}
}

func (c *Consumer) run(ctx context.Context) {
	b := c.newBackOff()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				c.logger.Info("Kafka reader closed, stopping consumer")
				return
			}
			wait := b.NextBackOff()
			if wait == backoff.Stop {
				c.logger.Error("Giving up fetching messages", zap.Error(err))
				return
			}
			c.logger.Error("Failed to fetch message",
				zap.Error(err),
				zap.Duration("retry_in", wait),
			)
			if c.sleep(ctx, wait) != nil {
				return
			}
			continue
		}
		b.Reset()
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to parse event",
			zap.Error(err),
			zap.ByteString("value", msg.Value),
		)
		c.commit(ctx, msg, event)
		return
	}

	if event.Type != AnalysisRequested {
		c.logger.Debug("Ignoring event", zap.String("event_type", string(event.Type)))
		c.commit(ctx, msg, event)
		return
	}

	if c.handler != nil {
		if err := c.handler(ctx, event); err != nil {
			c.logger.Error("Failed to handle event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.String("company_number", event.CompanyNumber),
			)
		}
	}
	c.commit(ctx, msg, event)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, event Event) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
		)
	}
}

// RegisterHandler sets the function called for each analysis request. It
// must be called before Start.
func (c *Consumer) RegisterHandler(fn func(context.Context, Event) error) {
	c.handler = fn
}

// Close stops the fetch loop, waits for an in-flight message to finish and
// closes the reader.
func (c *Consumer) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.Wait()
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
