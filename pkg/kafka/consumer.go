package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	applogger "CreditScore/pkg/logger"
)

// MessageHandler handles messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer skips retries and dead-letters the
// message right away.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

type partitionKey struct {
	topic     string
	partition int
}

// Consumer reads the registered topics and hands messages to a worker
// pool. Every partition is routed to a fixed worker, so its messages are
// handled and committed in offset order. A message that can neither be
// handled nor dead-lettered holds its partition until shutdown.
type Consumer struct {
	cfg      *ConsumerConfig
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer
	hook     ConsumerHook
	l        *applogger.Logger

	queues   []chan kafka.Message
	stop     chan struct{}
	stopOnce sync.Once
	workers  sync.WaitGroup
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	c := &Consumer{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		hook:     NoopHook{},
		queues:   make([]chan kafka.Message, cfg.WorkerCount),
		stop:     make(chan struct{}),
	}
	for i := range c.queues {
		c.queues[i] = make(chan kafka.Message, cfg.BufferSize)
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafka.Hash{},
		}
	}

	consumerMetricsOnce.Do(registerConsumerMetrics)
	return c, nil
}

// SetLogger injects a structured logger.
func (c *Consumer) SetLogger(l *applogger.Logger) { c.l = l }

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler registers the handler for its topic. The first handler
// for a topic wins. Must be called before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, dup := c.handlers[topic]; dup {
		c.log().Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = h
}

// Start opens one reader per registered topic and starts the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}

	var fetchers sync.WaitGroup
	for topic := range c.handlers {
		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers[topic] = r

		fetchers.Add(1)
		go func(topic string, r *kafka.Reader) {
			defer fetchers.Done()
			c.fetch(topic, r)
		}(topic, r)
	}

	for _, q := range c.queues {
		c.workers.Add(1)
		go c.work(q)
	}

	// workers exit once every fetcher is done and their queues are drained
	go func() {
		fetchers.Wait()
		for _, q := range c.queues {
			close(q)
		}
	}()

	c.log().Info("kafka consumer started",
		applogger.String("group_id", c.cfg.GroupID),
		applogger.Int("topics", len(c.readers)),
		applogger.Int("workers", c.cfg.WorkerCount),
	)
	return nil
}

// Stop signals the fetchers, waits for in-flight messages until ctx ends,
// then closes readers and the DLQ writer.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		done := make(chan struct{})
		go func() {
			c.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("waiting for kafka workers: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log().Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log().Warn("kafka dlq close failed", applogger.Error(cerr))
			}
		}
		if err == nil {
			c.log().Info("kafka consumer stopped")
		}
	})
	return err
}

func (c *Consumer) fetch(topic string, r *kafka.Reader) {
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := r.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log().Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			}
			continue
		}

		// blocking send applies backpressure to the reader
		q := c.queues[c.workerFor(msg.Topic, msg.Partition)]
		select {
		case q <- msg:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(q)))
		case <-c.stop:
			return
		}
	}
}

// workerFor maps a partition onto the worker that owns it.
func (c *Consumer) workerFor(topic string, partition int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	return int((uint64(h.Sum32()) + uint64(partition)) % uint64(len(c.queues)))
}

func (c *Consumer) work(queue <-chan kafka.Message) {
	defer c.workers.Done()

	// partitions whose head message is still uncommitted; their later
	// messages are redelivered from that offset after a restart
	held := make(map[partitionKey]bool)
	for msg := range queue {
		k := partitionKey{msg.Topic, msg.Partition}
		if held[k] {
			continue
		}
		h, ok := c.handlers[msg.Topic]
		if !ok {
			continue
		}
		if !c.processUntilDone(h, msg) {
			held[k] = true
		}
	}
}

// processUntilDone repeats process until the message is committed or the
// consumer stops. It reports whether the message was committed.
func (c *Consumer) processUntilDone(h MessageHandler, msg kafka.Message) bool {
	for {
		if c.process(h, msg) {
			return true
		}
		select {
		case <-time.After(c.cfg.BackoffMax):
		case <-c.stop:
			return false
		}
	}
}

// process handles one message and dead-letters it on final failure. It
// commits and returns true when the message is done with. Without a DLQ a
// permanent failure is dropped and a transient one is left uncommitted.
func (c *Consumer) process(h MessageHandler, msg kafka.Message) bool {
	start := time.Now()

	attempts, err := c.attempt(h, msg)
	result := "ok"
	if err != nil {
		result = "failed"
		safeHook(func() { c.hook.OnError(context.Background(), msg.Topic, msg, err) })
		c.log().Error("kafka handler failed",
			applogger.String("topic", msg.Topic),
			applogger.Int("partition", msg.Partition),
			applogger.Int64("offset", msg.Offset),
			applogger.Int("attempts", attempts),
			applogger.Bool("permanent", IsPermanent(err)),
			applogger.Error(err),
		)
		switch {
		case c.deadLetter(msg, err):
			result = "dead_lettered"
		case c.dlq == nil && IsPermanent(err):
			result = "dropped"
		}
	}

	done := err == nil || result != "failed"
	if done {
		c.commit(msg)
	}
	consumerHandled.WithLabelValues(msg.Topic, result).Inc()
	consumerHandleLatency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	return done
}

// attempt runs the handler with retries and returns how many tries were made.
func (c *Consumer) attempt(h MessageHandler, msg kafka.Message) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()

	for n = 1; ; n++ {
		ctx, data := context.Background(), msg.Value
		safeHook(func() { ctx, data, err = c.hook.BeforeHandle(ctx, msg.Topic, msg, data) })
		if err == nil {
			err = h.Handle(ctx, data)
			safeHook(func() { c.hook.AfterHandle(ctx, msg.Topic, msg, err) })
		}
		if err == nil || IsPermanent(err) || n > c.cfg.RetryMax {
			return n, err
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, n)):
		case <-c.stop:
			return n, err
		}
	}
}

func (c *Consumer) deadLetter(msg kafka.Message, cause error) bool {
	if c.dlq == nil {
		return false
	}
	headers := make([]kafka.Header, 0, len(msg.Headers)+2)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "source_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
	)
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Time:    time.Now(),
		Headers: headers,
	})
	if err != nil {
		c.log().Error("kafka dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) commit(msg kafka.Message) {
	r := c.readers[msg.Topic]
	if r == nil {
		return
	}
	const tries = 3
	var err error
	for i := 1; i <= tries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, i))
	}
	c.log().Error("kafka commit failed", applogger.String("topic", msg.Topic), applogger.Int64("offset", msg.Offset), applogger.Error(err))
}

func (c *Consumer) log() *applogger.Logger {
	if c.l == nil {
		return applogger.Nop()
	}
	return c.l
}

// backoffWithJitter doubles min per attempt up to max and subtracts up to
// half of it at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt >= 1 && attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}

var (
	consumerMetricsOnce sync.Once

	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandled       *prometheus.CounterVec
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "creditscore_kafka_consumer_queue_depth",
		Help: "Messages waiting for a worker",
	}, []string{"topic"})
	consumerHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creditscore_kafka_consumer_messages_total",
		Help: "Messages processed by outcome",
	}, []string{"topic", "result"})
	consumerHandleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "creditscore_kafka_consumer_handle_seconds",
		Help: "Handling time per message including retries",
	}, []string{"topic"})
}
