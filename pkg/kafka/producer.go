package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Message is one record to publish. Value is sent as-is when it is []byte
// or string and JSON encoded otherwise.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

// Producer publishes to any topic through a single shared writer.
type Producer struct {
	writer *kafka.Writer
	codec  string
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  compressionCodec(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
	}
	if cfg.HashByKey {
		w.Balancer = &kafka.Hash{}
	}

	producerMetricsOnce.Do(registerProducerMetrics)
	return &Producer{writer: w, codec: cfg.Compression}, nil
}

// Publish sends a single keyed message.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage sends an unkeyed message. It satisfies logger.Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch writes messages in one call. Nothing is written if any
// value fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	out, size, err := toKafkaMessages(topic, messages, start)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, out...)
	observePublish(topic, p.codec, size, len(out), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(out), topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toKafkaMessages(topic string, in []Message, at time.Time) ([]kafka.Message, int64, error) {
	out := make([]kafka.Message, len(in))
	var size int64
	for i, m := range in {
		v, err := encodeValue(m.Value)
		if err != nil {
			return nil, 0, fmt.Errorf("message %d: %w", i, err)
		}
		out[i] = kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: at}
		for k, hv := range m.Headers {
			out[i].Headers = append(out[i].Headers, kafka.Header{Key: k, Value: []byte(hv)})
		}
		size += int64(len(v))
	}
	return out, size, nil
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return b, nil
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "none":
		return 0
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	}
	return kafka.Gzip
}

var (
	producerMetricsOnce sync.Once

	producerMessages *prometheus.CounterVec
	producerBytes    *prometheus.CounterVec
	producerLatency  *prometheus.HistogramVec
)

func registerProducerMetrics() {
	producerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscore_kafka_producer_messages_total",
		Help: "Messages handed to the Kafka writer by result",
	}, []string{"topic", "compression", "result"})
	producerBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscore_kafka_producer_bytes_total",
		Help: "Encoded payload bytes handed to the Kafka writer",
	}, []string{"topic", "compression"})
	producerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creditscore_kafka_producer_publish_seconds",
		Help:    "WriteMessages latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
}

func observePublish(topic, codec string, size int64, n int, d time.Duration, err error) {
	if producerMessages == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerMessages.WithLabelValues(topic, codec, result).Add(float64(n))
	producerBytes.WithLabelValues(topic, codec).Add(float64(size))
	producerLatency.WithLabelValues(topic).Observe(d.Seconds())
}
