package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Value string `json:"value"`
}

func TestEventStore_Append_VersionsAreSequential(t *testing.T) {
	es := NewEventStore(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		event, err := es.Append(ctx, "agg-1", "TestAggregate", "SomethingHappened", testPayload{Value: "x"}, i)
		require.NoError(t, err)
		assert.Equal(t, i+1, event.Version)
	}

	events := es.GetEvents("agg-1")
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, i+1, e.Version)
	}
}

func TestEventStore_Append_VersionConflict(t *testing.T) {
	es := NewEventStore(nil)
	ctx := context.Background()

	_, err := es.Append(ctx, "agg-1", "TestAggregate", "SomethingHappened", testPayload{}, 0)
	require.NoError(t, err)

	// A second writer that also read version 0 loses
	_, err = es.Append(ctx, "agg-1", "TestAggregate", "SomethingElse", testPayload{}, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The stream is untouched by the failed append
	assert.Len(t, es.GetEvents("agg-1"), 1)
}

func TestEventStore_Append_AnyVersion(t *testing.T) {
	es := NewEventStore(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := es.Append(ctx, "agg-1", "TestAggregate", "SomethingHappened", testPayload{}, AnyVersion)
		require.NoError(t, err)
	}
	assert.Len(t, es.GetEvents("agg-1"), 3)
}

func TestEventStore_GetEventsFromVersion(t *testing.T) {
	es := NewEventStore(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := es.Append(ctx, "agg-1", "TestAggregate", "SomethingHappened", testPayload{}, i)
		require.NoError(t, err)
	}

	events := es.GetEventsFromVersion(ctx, "agg-1", 3)
	require.Len(t, events, 2)
	assert.Equal(t, 4, events[0].Version)
	assert.Equal(t, 5, events[1].Version)

	assert.Empty(t, es.GetEventsFromVersion(ctx, "agg-1", 5))
}

func TestEventStore_GetAllEvents(t *testing.T) {
	es := NewEventStore(nil)
	ctx := context.Background()

	_, err := es.Append(ctx, "agg-1", "TestAggregate", "SomethingHappened", testPayload{}, AnyVersion)
	require.NoError(t, err)
	_, err = es.Append(ctx, "agg-2", "TestAggregate", "SomethingHappened", testPayload{}, AnyVersion)
	require.NoError(t, err)

	assert.Len(t, es.GetAllEvents(), 2)
}

func TestEventStore_Snapshots(t *testing.T) {
	es := NewEventStore(nil)
	ctx := context.Background()

	snap, err := es.GetSnapshot(ctx, "agg-1")
	require.NoError(t, err)
	assert.Nil(t, snap)

	state, _ := json.Marshal(testPayload{Value: "state"})
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "agg-1",
		AggregateType: "TestAggregate",
		Version:       10,
		State:         state,
	}))

	snap, err = es.GetSnapshot(ctx, "agg-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 10, snap.Version)

	// A newer snapshot replaces the old one
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "agg-1",
		AggregateType: "TestAggregate",
		Version:       20,
		State:         state,
	}))
	snap, _ = es.GetSnapshot(ctx, "agg-1")
	assert.Equal(t, 20, snap.Version)
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	es := NewEventStore(nil)
	event, err := es.Append(context.Background(), "agg-1", "TestAggregate", "SomethingHappened", testPayload{Value: "x"}, 0)
	require.NoError(t, err)

	raw, err := event.MarshalJSON()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Version, decoded.Version)
	assert.Equal(t, event.EventType, decoded.EventType)
}
