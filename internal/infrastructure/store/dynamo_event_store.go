package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/custom-order-service/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

// DynamoEventStore stores events in DynamoDB.
// Partition key is aggregate_id, sort key is version; a conditional put on
// the key pair makes the expected-version append atomic.
type DynamoEventStore struct {
	client            *dynamodb.Client
	tableName         string
	snapshotTableName string
	producer          *kafka.Producer
}

// dynamoEvent represents the DynamoDB item structure
type dynamoEvent struct {
	AggregateID   string `dynamodbav:"aggregate_id"`
	Version       int    `dynamodbav:"version"`
	ID            string `dynamodbav:"id"`
	AggregateType string `dynamodbav:"aggregate_type"`
	EventType     string `dynamodbav:"event_type"`
	Data          string `dynamodbav:"data"`
	CreatedAt     string `dynamodbav:"created_at"`
	GSI1PK        string `dynamodbav:"gsi1pk"`
}

type dynamoSnapshot struct {
	AggregateID   string `dynamodbav:"aggregate_id"`
	AggregateType string `dynamodbav:"aggregate_type"`
	Version       int    `dynamodbav:"version"`
	State         string `dynamodbav:"state"`
	CreatedAt     string `dynamodbav:"created_at"`
}

func NewDynamoEventStore(client *dynamodb.Client, tableName, snapshotTableName string, producer *kafka.Producer) *DynamoEventStore {
	return &DynamoEventStore{
		client:            client,
		tableName:         tableName,
		snapshotTableName: snapshotTableName,
		producer:          producer,
	}
}

// Append stores an event in DynamoDB and publishes to Kafka
func (es *DynamoEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	version := expectedVersion + 1
	if expectedVersion == AnyVersion {
		current, err := es.currentVersion(ctx, aggregateID)
		if err != nil {
			return nil, fmt.Errorf("failed to get current version: %w", err)
		}
		version = current + 1
	}

	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}

	item, err := attributevalue.MarshalMap(dynamoEvent{
		AggregateID:   event.AggregateID,
		Version:       event.Version,
		ID:            event.ID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Data:          string(event.Data),
		CreatedAt:     event.Timestamp.Format(time.RFC3339Nano),
		GSI1PK:        event.AggregateType,
	})
	if err != nil {
		return nil, err
	}

	_, err = es.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(es.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(aggregate_id) AND attribute_not_exists(version)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("%w: aggregate %s already has version %d",
				ErrVersionConflict, aggregateID, version)
		}
		return nil, err
	}

	if es.producer != nil {
		if err := es.producer.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

func (es *DynamoEventStore) currentVersion(ctx context.Context, aggregateID string) (int, error) {
	out, err := es.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("aggregate_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: aggregateID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, err
	}
	if len(out.Items) == 0 {
		return 0, nil
	}
	var item dynamoEvent
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return 0, err
	}
	return item.Version, nil
}

// GetEvents returns all events for an aggregate, ordered by version
func (es *DynamoEventStore) GetEvents(aggregateID string) []Event {
	return es.queryFromVersion(context.Background(), aggregateID, 0)
}

// GetEventsFromVersion returns events with version > afterVersion
func (es *DynamoEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, afterVersion int) []Event {
	return es.queryFromVersion(ctx, aggregateID, afterVersion)
}

func (es *DynamoEventStore) queryFromVersion(ctx context.Context, aggregateID string, afterVersion int) []Event {
	out, err := es.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(es.tableName),
		KeyConditionExpression: aws.String("aggregate_id = :id AND version > :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: aggregateID},
			":v":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", afterVersion)},
		},
	})
	if err != nil {
		return nil
	}
	return es.unmarshalItems(out.Items)
}

// GetAllEvents returns all events. Scan-based, intended for replay on startup.
func (es *DynamoEventStore) GetAllEvents() []Event {
	var events []Event
	var lastKey map[string]types.AttributeValue
	for {
		out, err := es.client.Scan(context.Background(), &dynamodb.ScanInput{
			TableName:         aws.String(es.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return events
		}
		events = append(events, es.unmarshalItems(out.Items)...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return events
}

func (es *DynamoEventStore) unmarshalItems(items []map[string]types.AttributeValue) []Event {
	var events []Event
	for _, raw := range items {
		var item dynamoEvent
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
		if err != nil {
			continue
		}
		events = append(events, Event{
			ID:            item.ID,
			AggregateID:   item.AggregateID,
			AggregateType: item.AggregateType,
			EventType:     item.EventType,
			Data:          json.RawMessage(item.Data),
			Timestamp:     ts,
			Version:       item.Version,
		})
	}
	return events
}

// GetSnapshot returns the latest snapshot for an aggregate
func (es *DynamoEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	out, err := es.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(es.snapshotTableName),
		Key: map[string]types.AttributeValue{
			"aggregate_id": &types.AttributeValueMemberS{Value: aggregateID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}

	var item dynamoSnapshot
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		AggregateID:   item.AggregateID,
		AggregateType: item.AggregateType,
		Version:       item.Version,
		State:         json.RawMessage(item.State),
		CreatedAt:     ts,
	}, nil
}

// SaveSnapshot stores a snapshot, overwriting any older one for the aggregate
func (es *DynamoEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	item, err := attributevalue.MarshalMap(dynamoSnapshot{
		AggregateID:   snapshot.AggregateID,
		AggregateType: snapshot.AggregateType,
		Version:       snapshot.Version,
		State:         string(snapshot.State),
		CreatedAt:     snapshot.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	_, err = es.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(es.snapshotTableName),
		Item:      item,
	})
	return err
}
