// Package publish forwards emitted signals to downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/config"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

const sinkName = "kafka"

// MessageWriter is the part of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SignalEvent is the message value, one per emitted signal
type SignalEvent struct {
	TickID    string                     `json:"tick_id"`
	Timestamp time.Time                  `json:"timestamp"`
	Session   contracts.Session          `json:"session"`
	Signal    *contracts.CandidateSignal `json:"signal"`
}

// Publisher writes signals to a kafka topic keyed by symbol
// ⭐ SSOT: 외부 발행은 여기서만
type Publisher struct {
	writer  MessageWriter
	topic   string
	metrics metrics.Sink
	logger  *logger.Logger
}

// NewKafka creates a publisher backed by a kafka.Writer
// Hash balancer: 같은 종목은 같은 파티션 (순서 보장)
func NewKafka(cfg config.KafkaConfig, sink metrics.Sink, log *logger.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("brokers are required")
	}
	if cfg.SignalTopic == "" {
		return nil, errors.New("signal topic is required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Gzip,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
	}
	return New(w, cfg.SignalTopic, sink, log), nil
}

// New wraps an existing writer
func New(w MessageWriter, topic string, sink metrics.Sink, log *logger.Logger) *Publisher {
	if sink == nil {
		sink = metrics.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{writer: w, topic: topic, metrics: sink, logger: log}
}

// Name implements contracts.TickSink
func (p *Publisher) Name() string { return sinkName }

// HandleTick publishes every signal of the tick in one batch
func (p *Publisher) HandleTick(ctx context.Context, result *contracts.TickResult) error {
	if len(result.Signals) == 0 {
		return nil
	}

	msgs, err := p.messages(result)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		for range msgs {
			p.metrics.IncCounter(metrics.PublishedSignals, sinkName, "error")
		}
		return fmt.Errorf("publish %d signals to %s: %w", len(msgs), p.topic, err)
	}

	for range msgs {
		p.metrics.IncCounter(metrics.PublishedSignals, sinkName, "ok")
	}
	p.logger.WithFields(map[string]interface{}{
		"tick_id": result.TickID,
		"topic":   p.topic,
		"count":   len(msgs),
	}).Debug("Signals published")
	return nil
}

func (p *Publisher) messages(result *contracts.TickResult) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(result.Signals))
	for _, s := range result.Signals {
		value, err := json.Marshal(SignalEvent{
			TickID:    result.TickID,
			Timestamp: result.Timestamp,
			Session:   result.Session,
			Signal:    s,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal signal %s: %w", s.Symbol, err)
		}

		msgs = append(msgs, kafka.Message{
			Topic: p.topic,
			Key:   []byte(s.Symbol),
			Value: value,
			Time:  result.Timestamp,
			Headers: []kafka.Header{
				{Key: "tick_id", Value: []byte(result.TickID)},
				{Key: "tier", Value: []byte(s.Tier)},
			},
		})
	}
	return msgs, nil
}

// Close flushes and closes the writer
func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
