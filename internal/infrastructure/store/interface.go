package store

import (
	"context"
	"errors"
)

// AnyVersion skips the expected-version check on Append.
const AnyVersion = -1

// ErrVersionConflict is returned when Append is called with an expected
// version that no longer matches the stream head. Another writer won.
var ErrVersionConflict = errors.New("event version conflict")

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	// Append stores an event as version expectedVersion+1 of the aggregate's
	// stream. It fails with ErrVersionConflict if the stream has moved past
	// expectedVersion. Pass AnyVersion to append at the current head.
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*Event, error)

	// GetEvents returns all events for an aggregate, ordered by version
	GetEvents(aggregateID string) []Event

	// GetEventsFromVersion returns events with version > afterVersion
	GetEventsFromVersion(ctx context.Context, aggregateID string, afterVersion int) []Event

	// GetAllEvents returns all events across all aggregates
	GetAllEvents() []Event

	// GetSnapshot returns the latest snapshot for an aggregate, nil if none exists
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)

	// SaveSnapshot stores an aggregate snapshot
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}
