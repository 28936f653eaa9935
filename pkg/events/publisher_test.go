package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelStub struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	declareErr error
	closed     bool
}

func (c *channelStub) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if c.declareErr != nil {
		return amqp.Queue{}, c.declareErr
	}
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *channelStub) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *channelStub) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherPublish(t *testing.T) {
	ch := &channelStub{}
	publisher, err := newAMQPPublisher(ch, "timetable.saved", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"timetable.saved"}, ch.declared)

	err = publisher.Publish(context.Background(), Event{Type: "timetable.saved", Payload: map[string]string{"id": "tt-1"}})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "timetable.saved", ch.keys[0])
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "timetable.saved", decoded.Type)
	assert.False(t, decoded.OccurredAt.IsZero())

	require.NoError(t, publisher.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherErrors(t *testing.T) {
	_, err := newAMQPPublisher(&channelStub{declareErr: errors.New("denied")}, "q", 0, nil)
	assert.Error(t, err)

	publisher, err := newAMQPPublisher(&channelStub{publishErr: errors.New("closed")}, "q", 0, nil)
	require.NoError(t, err)
	assert.Error(t, publisher.Publish(context.Background(), Event{Type: "x"}))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
