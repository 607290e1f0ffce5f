package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu    sync.Mutex
	topic string
	batch []AggregatedLogEntry
	calls int
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.topic = topic
	if logs, ok := payload.([]AggregatedLogEntry); ok {
		p.batch = append(p.batch, logs...)
	}
	return nil
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestCollectorAggregatesDuplicateErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "errors",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		l.Error("artifact load failed", String("artifact", "scaler.json"), Error(errors.New("missing")))
	}
	l.Error("other failure")
	l.Warn("not collected")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, "errors", pub.topic)
	require.Len(t, pub.batch, 2)

	counts := map[string]int{}
	for _, e := range pub.batch {
		counts[e.Message] = e.Count
		assert.Equal(t, "error", e.Level)
	}
	assert.Equal(t, 3, counts["artifact load failed"])
	assert.Equal(t, 1, counts["other failure"])
}

func TestCollectorDefaultsAndNilPublisher(t *testing.T) {
	cfg := &CollectionConfig{}
	c := NewLogCollector(cfg)
	assert.Equal(t, 30*time.Second, cfg.TimeInterval)
	assert.Equal(t, 100, cfg.CountThreshold)
	c.AddLog("error", "x", nil, "here")
	c.Close()
}

func TestWithSharesCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Publisher: pub})
	child := l.With(String("component", "predictor"))
	child.Error("boom")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batch, 1)
	assert.Equal(t, "boom", pub.batch[0].Message)
}

func TestFieldsRenderIntoEvent(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	l.Info("scored",
		String("model", "supervised"),
		Float64("confidence", 0.75),
		Duration("took", 1500*time.Millisecond),
		Strings("loan_types", []string{"Auto Loan", "Mortgage Loan"}),
		Bool("cached", false),
	)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "supervised", out["model"])
	assert.Equal(t, 0.75, out["confidence"])
	assert.Equal(t, float64(1500), out["took"])
	assert.Equal(t, []interface{}{"Auto Loan", "Mortgage Loan"}, out["loan_types"])
	assert.Equal(t, false, out["cached"])
}

func TestErrorFieldNil(t *testing.T) {
	k, v := Error(nil).GetKeyValue()
	assert.Equal(t, "error", k)
	assert.Equal(t, "", v)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	assert.Equal(t, 1, c.Pending())
	c.AddLog("error", "b", nil, "x.go:2")
	assert.Equal(t, 0, c.Pending())

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.calls == 1 && len(pub.batch) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := map[string]interface{}{"x": 1, "y": "z"}
	b := map[string]interface{}{"y": "z", "x": 1}
	assert.Equal(t, entryKey("error", "m", a, "c"), entryKey("error", "m", b, "c"))
	assert.NotEqual(t, entryKey("error", "m", a, "c"), entryKey("error", "m", a, "d"))
}
