package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type MockKafkaReader struct {
	mock.Mock
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaReader) Close() error {
	args := m.Called()
	return args.Error(0)
}

func requestMessage(t *testing.T, event Event) kafka.Message {
	value, err := json.Marshal(event)
	assert.NoError(t, err)
	return kafka.Message{Key: []byte(event.CompanyNumber), Value: value}
}

func TestConsumer_Handle(t *testing.T) {
	tests := []struct {
		name        string
		msg         func(t *testing.T) kafka.Message
		handlerErr  error
		wantHandled bool
		wantLog     string
	}{
		{
			name: "analysis request is handled",
			msg: func(t *testing.T) kafka.Message {
				return requestMessage(t, Event{Type: AnalysisRequested, CompanyNumber: "00445790", Mode: "basic"})
			},
			wantHandled: true,
		},
		{
			name: "other event types are ignored",
			msg: func(t *testing.T) kafka.Message {
				return requestMessage(t, Event{Type: CompanyScored, CompanyNumber: "00445790"})
			},
		},
		{
			name: "malformed payload",
			msg: func(_ *testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{not json")}
			},
			wantLog: "Failed to parse event",
		},
		{
			name: "handler error is logged",
			msg: func(t *testing.T) kafka.Message {
				return requestMessage(t, Event{Type: AnalysisRequested, CompanyNumber: "00445790"})
			},
			handlerErr:  errors.New("boom"),
			wantHandled: true,
			wantLog:     "Failed to handle event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zap.DebugLevel)
			reader := new(MockKafkaReader)
			reader.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

			consumer := newConsumer(reader, zap.New(core))
			var got []Event
			consumer.RegisterHandler(func(_ context.Context, e Event) error {
				got = append(got, e)
				return tt.handlerErr
			})

			consumer.handle(context.Background(), tt.msg(t))

			if tt.wantHandled {
				assert.Len(t, got, 1)
				assert.Equal(t, "00445790", got[0].CompanyNumber)
			} else {
				assert.Empty(t, got)
			}
			if tt.wantLog != "" {
				assert.Equal(t, 1, recorded.FilterMessage(tt.wantLog).Len())
			}
			// every message is committed so a poison message is not redelivered
			reader.AssertNumberOfCalls(t, "CommitMessages", 1)
		})
	}
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)

	consumer := newConsumer(reader, zaptest.NewLogger(t))
	consumer.run(ctx)

	reader.AssertNumberOfCalls(t, "FetchMessage", 1)
}

func TestConsumer_Close(t *testing.T) {
	reader := new(MockKafkaReader)
	reader.On("Close").Return(nil)

	newConsumer(reader, zaptest.NewLogger(t)).Close()

	reader.AssertCalled(t, "Close")
}

// funcReader is a KafkaReader backed by function fields.
type funcReader struct {
	fetch  func(ctx context.Context) (kafka.Message, error)
	closed atomic.Bool
}

func (r *funcReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	return r.fetch(ctx)
}

func (r *funcReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }

func (r *funcReader) Close() error {
	r.closed.Store(true)
	return nil
}

func TestConsumer_RunBacksOffOnFetchError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, errors.New("broker unreachable"))

	core, recorded := observer.New(zap.ErrorLevel)
	consumer := newConsumer(reader, zap.New(core))
	var waits []time.Duration
	consumer.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if len(waits) == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	consumer.run(ctx)

	reader.AssertNumberOfCalls(t, "FetchMessage", 3)
	require.Len(t, waits, 3)
	for _, d := range waits {
		assert.Greater(t, d, time.Duration(0))
	}
	assert.Equal(t, 3, recorded.FilterMessage("Failed to fetch message").Len())
}

func TestConsumer_PersistentFetchErrorIsBounded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var calls atomic.Int64
	reader := &funcReader{fetch: func(context.Context) (kafka.Message, error) {
		calls.Add(1)
		return kafka.Message{}, errors.New("broker unreachable")
	}}

	consumer := newConsumer(reader, zap.NewNop())
	consumer.newBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(50 * time.Millisecond)
	}
	consumer.run(ctx)

	assert.LessOrEqual(t, calls.Load(), int64(5))
}

func TestConsumer_RunStopsWhenReaderClosed(t *testing.T) {
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, io.EOF)

	core, recorded := observer.New(zap.InfoLevel)
	consumer := newConsumer(reader, zap.New(core))
	consumer.sleep = func(context.Context, time.Duration) error {
		t.Fatal("closed reader must not be retried")
		return nil
	}

	consumer.run(context.Background())

	reader.AssertNumberOfCalls(t, "FetchMessage", 1)
	assert.Equal(t, 1, recorded.FilterMessage("Kafka reader closed, stopping consumer").Len())
	assert.Zero(t, recorded.FilterMessage("Failed to fetch message").Len())
}

func TestConsumer_CloseWaitsForInFlightHandler(t *testing.T) {
	msg := requestMessage(t, Event{Type: AnalysisRequested, CompanyNumber: "00445790"})
	var delivered atomic.Bool
	reader := &funcReader{fetch: func(ctx context.Context) (kafka.Message, error) {
		if delivered.CompareAndSwap(false, true) {
			return msg, nil
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}}

	consumer := newConsumer(reader, zaptest.NewLogger(t))
	started := make(chan struct{})
	var finished atomic.Bool
	consumer.RegisterHandler(func(ctx context.Context, _ Event) error {
		close(started)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return ctx.Err()
	})

	consumer.Start(context.Background())
	<-started
	consumer.Close()

	assert.True(t, finished.Load(), "Close returned before the handler finished")
	assert.True(t, reader.closed.Load())
}

func TestConsumer_StartStopsOnParentCancel(t *testing.T) {
	reader := &funcReader{fetch: func(ctx context.Context) (kafka.Message, error) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())

	consumer := newConsumer(reader, zaptest.NewLogger(t))
	consumer.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		consumer.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch loop did not stop after cancellation")
	}
}
