package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	topics []string
	keys   []string
	events []Event
	err    error
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.topics = append(r.topics, topic)
	r.keys = append(r.keys, key)
	r.events = append(r.events, event.(Event))
	return r.err
}

func TestPublish(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	Publish(context.Background(), rec, TopicOrders, "o-1", OrderCreated, map[string]string{"id": "o-1"})

	require.Len(t, rec.events, 1)
	assert.Equal(t, TopicOrders, rec.topics[0])
	assert.Equal(t, "o-1", rec.keys[0])
	assert.Equal(t, OrderCreated, rec.events[0].Type)
	assert.False(t, rec.events[0].OccurredAt.IsZero())
}

func TestPublish_ErrorIsSwallowed(t *testing.T) {
	t.Parallel()
	rec := &recorder{err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		Publish(context.Background(), rec, TopicCarts, "cart:1", CartUpdated, nil)
	})
	assert.NotPanics(t, func() {
		Publish(context.Background(), nil, TopicCarts, "cart:1", CartUpdated, nil)
	})
}
