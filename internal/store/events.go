package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// InsertDomainEventParams identifies the event to persist.
type InsertDomainEventParams struct {
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
}

// InsertDomainEvent appends an event row and returns it with the assigned
// identifier and timestamp.
func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	var ev DomainEvent
	err := q.db.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		arg.Topic, arg.AggregateID, arg.Payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
