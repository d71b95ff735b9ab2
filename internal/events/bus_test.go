package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/store"
)

type stubStore struct {
	lastParams store.InsertDomainEventParams
	failWith   error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg store.InsertDomainEventParams) (store.DomainEvent, error) {
	s.lastParams = arg
	if s.failWith != nil {
		return store.DomainEvent{}, s.failWith
	}
	return store.DomainEvent{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureScheduler struct {
	events []store.DomainEvent
}

func (c *captureScheduler) Schedule(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type captureNotifier struct {
	events []store.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func toUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func TestEmitPersistsAndFansOut(t *testing.T) {
	st := &stubStore{}
	scheduler := &captureScheduler{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: st, Scheduler: scheduler, Notifiers: []events.Notifier{notifier}}

	event, err := bus.Emit(context.Background(), events.TopicOrderCreated, toUUID(uuid.New()), map[string]any{"orderId": "123"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderCreated, st.lastParams.Topic)
	require.JSONEq(t, `{"orderId":"123"}`, string(st.lastParams.Payload))
	require.Len(t, scheduler.events, 1)
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, scheduler.events[0].ID)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "  ", toUUID(uuid.New()), nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, pgtype.UUID{}, nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, toUUID(uuid.New()), []byte("{not json"))
	require.Error(t, err)
}

func TestEmitPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("insert failed")
	bus := events.Bus{Store: &stubStore{failWith: boom}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, toUUID(uuid.New()), nil)
	require.ErrorIs(t, err, boom)
}

func TestEmitEmptyPayloadDefaultsToObject(t *testing.T) {
	st := &stubStore{}
	bus := events.Bus{Store: st}

	_, err := bus.Emit(context.Background(), events.TopicCouponRedeemed, toUUID(uuid.New()), nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(st.lastParams.Payload))
}
