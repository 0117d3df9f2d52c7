package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishEvent(t *testing.T) {
	t.Parallel()
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.PublishEvent(context.Background(), "order_events", "o-1", map[string]any{"status": "annulled"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order_events", w.msgs[0].Topic)
	assert.Equal(t, []byte("o-1"), w.msgs[0].Key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "annulled", body["status"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEvent_Errors(t *testing.T) {
	t.Parallel()
	p := &Producer{writer: &fakeWriter{err: errors.New("no leader")}}
	assert.Error(t, p.PublishEvent(context.Background(), "t", "k", struct{}{}))

	p = &Producer{writer: &fakeWriter{}}
	assert.Error(t, p.PublishEvent(context.Background(), "t", "k", make(chan int)))
}

func TestNewProducer_NoBrokers(t *testing.T) {
	t.Parallel()
	_, err := NewProducer(nil)
	assert.Error(t, err)
}
