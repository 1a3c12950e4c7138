package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gartstein/companyrisk/internal/company/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

// EventType discriminates the JSON events on both topics.
type EventType string

const (
	CompanyScored     EventType = "company_scored"
	AnalysisRequested EventType = "analysis_requested"
)

// Event is the JSON value of every message. Requests carry only
// CompanyNumber and Mode.
type Event struct {
	Type          EventType
	AnalysisID    string `json:",omitempty"`
	CompanyNumber string
	CompanyName   string             `json:",omitempty"`
	Mode          string             `json:",omitempty"`
	SummaryScore  map[string]float64 `json:",omitempty"`
}

// NewScoredEvent builds the event published once a company has been scored.
func NewScoredEvent(analysisID uuid.UUID, mode string, company *models.Company) Event {
	return Event{
		Type:          CompanyScored,
		AnalysisID:    analysisID.String(),
		CompanyNumber: company.CompanyNumber,
		CompanyName:   company.Name,
		Mode:          mode,
		SummaryScore:  company.SummaryScore,
	}
}

// KafkaWriter is the subset of *kafka.Writer used by the Producer.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	queueSize       = 1000
	writeTimeout    = 10 * time.Second
	topicPartitions = 3
	// eventTypeHeader lets consumers filter without decoding the value.
	eventTypeHeader = "event_type"
)

// Producer publishes events asynchronously from a bounded queue.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	// done is closed when a started event loop has drained and exited.
	done chan struct{}
}

// NewProducer creates topic when missing and starts the publishing loop.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers configured")
	}
	if err := ensureTopic(brokers[0], topic, logger); err != nil {
		return nil, err
	}

	p := newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
	}, logger)

	p.done = make(chan struct{})
	go p.eventLoop()
	return p, nil
}

func ensureTopic(broker, topic string, logger *zap.Logger) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("failed to dial Kafka broker %s: %w", broker, err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     topicPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("Failed to create topic (may already exist)",
			zap.Error(err),
			zap.String("topic", topic),
		)
	}
	return nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, queueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// Produce enqueues an event without blocking; it is dropped with a warning
// when the queue is full.
func (p *Producer) Produce(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("company_number", event.CompanyNumber),
		)
	}
}

func (p *Producer) eventLoop() {
	if p.done != nil {
		defer close(p.done)
	}
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			p.drain()
			return
		}
	}
}

// drain sends whatever is still queued.
func (p *Producer) drain() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		default:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("company_number", event.CompanyNumber),
		)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	// keyed by company number so analyses of one company stay ordered
	err = p.writer.WriteMessages(ctx, newMessage(event, value))
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("company_number", event.CompanyNumber),
		)
		return
	}
	p.logger.Debug("Event produced",
		zap.String("event_type", string(event.Type)),
		zap.String("analysis_id", event.AnalysisID),
	)
}

func newMessage(event Event, value []byte) kafka.Message {
	return kafka.Message{
		Key:   []byte(event.CompanyNumber),
		Value: value,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	if p.done != nil {
		<-p.done
	}
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// NopProducer discards events. It is used when no brokers are configured.
type NopProducer struct{}

func (NopProducer) Produce(Event) {}

func (NopProducer) Close() {}
