package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rzzdr/ccr-analytics/pkg/models"
	"github.com/rzzdr/ccr-analytics/pkg/utils/circuit"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by the publisher
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublishRecorder records the outcome of each publish
type PublishRecorder interface {
	RecordPublish(topic string, err error)
}

// ProducerConfig contains configuration for the result producer
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
}

// ResultPublisher publishes stress test tables, one message per run keyed
// by run id. Writes stop for a while after repeated broker failures.
type ResultPublisher struct {
	writer  MessageWriter
	topic   string
	breaker *circuit.Breaker
	metrics PublishRecorder
	log     *logger.Logger
}

// NewResultPublisher creates a publisher backed by a kafka-go writer
func NewResultPublisher(cfg ProducerConfig, metrics PublishRecorder) (*ResultPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Configuration("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.Configuration("kafka topic is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
	}

	return newResultPublisher(writer, cfg.Topic, metrics), nil
}

func newResultPublisher(writer MessageWriter, topic string, metrics PublishRecorder) *ResultPublisher {
	return &ResultPublisher{
		writer:  writer,
		topic:   topic,
		breaker: circuit.New("kafka."+topic, circuit.DefaultConfig()),
		metrics: metrics,
		log:     logger.GetLogger("kafka.publisher").WithField("topic", topic),
	}
}

// PublishResults writes the stress table as a single JSON message
func (p *ResultPublisher) PublishResults(ctx context.Context, results *models.StressTestResults) error {
	if results == nil {
		return errors.InvalidArgument("no stress results to publish")
	}

	value, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal stress results: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(results.RunID),
		Value: value,
		Time:  results.Timestamp,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	err = p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if p.metrics != nil {
		p.metrics.RecordPublish(p.topic, err)
	}
	if err != nil {
		p.log.Errorw("Failed to publish stress results", "run_id", results.RunID, "error", err)
		return errors.Wrapf(err, "publish run %s", results.RunID)
	}

	p.log.Infow("Published stress results", "run_id", results.RunID, "scenarios", len(results.Scenarios))
	return nil
}

// Close flushes and closes the underlying writer
func (p *ResultPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
