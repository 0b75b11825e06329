package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 7, RoomName: "Sea Suite"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, "Sea Suite", decoded.RoomName)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe(EventBookingCancelled, func(_ *Event) error { count1++; return errors.New("first failed") })
	bus.Subscribe(EventBookingCancelled, func(_ *Event) error { count2++; return nil })

	err := bus.Publish(&Event{Type: EventBookingCancelled})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON(EventUserDeleted, UserEventPayload{UserID: 1}))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventUserDeleted, UserEventPayload{UserID: 123, Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, EventUserDeleted, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded UserEventPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, int64(123), decoded.UserID)

	_, err = NewJSONEvent("bad", make(chan int))
	assert.Error(t, err)
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ch := &fakeChannel{}
	pub := &AMQPPublisher{channel: ch, exchange: "hotel.events", logger: &logger}

	bus := NewEventBus()
	pub.Attach(bus, EventBookingCreated, EventBookingCancelled)

	require.NoError(t, bus.PublishJSON(EventBookingCancelled, BookingEventPayload{BookingID: 9, Reason: "plans changed"}))

	assert.Equal(t, "hotel.events", ch.exchange)
	assert.Equal(t, "event.booking_cancelled", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, EventBookingCancelled, ch.msg.Type)

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "plans changed", decoded.Reason)

	ch.err = errors.New("channel closed")
	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 10})
	assert.ErrorContains(t, err, "channel closed")

	pub.Close()
	assert.True(t, ch.closed)
}

func TestBuildPublishing(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := buildPublishing(&Event{Type: EventUserDeleted, Payload: []byte(`{}`), CreatedAt: at})
	assert.Equal(t, at, msg.Timestamp)
	assert.Equal(t, []byte(`{}`), msg.Body)
	assert.Equal(t, "event.user_deleted", RoutingKey(EventUserDeleted))
}
