package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToKafkaMessages(t *testing.T) {
	at := time.Unix(1700000000, 0)
	out, size, err := toKafkaMessages("records", []Message{
		{Key: []byte("a"), Value: map[string]int{"n": 1}, Headers: map[string]string{"schema": "v1"}},
		{Value: "raw"},
		{Value: []byte("xy")},
	}, at)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "records", out[0].Topic)
	assert.Equal(t, []byte("a"), out[0].Key)
	assert.JSONEq(t, `{"n":1}`, string(out[0].Value))
	require.Len(t, out[0].Headers, 1)
	assert.Equal(t, "schema", out[0].Headers[0].Key)
	assert.Equal(t, at, out[0].Time)

	assert.Equal(t, "raw", string(out[1].Value))
	assert.Equal(t, int64(len(`{"n":1}`)+3+2), size)
}

func TestToKafkaMessagesEncodeFailure(t *testing.T) {
	_, _, err := toKafkaMessages("t", []Message{{Value: make(chan int)}}, time.Now())
	assert.Error(t, err)
}

func TestPublishBatchEmptyIsNoop(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)
	defer p.Close()
	assert.NoError(t, p.PublishBatch(context.Background(), "t", nil))
}
