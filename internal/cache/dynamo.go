package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBItem represents a cache entry stored in DynamoDB
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
	TTL       int64  `dynamodbav:"TTL,omitempty"`
}

const dynamoSortKey = "LATEST"

// DynamoStore keeps one item per cache key. TTL is set to now+retain for
// the table's time-to-live sweeper.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	retain    time.Duration
	now       func() time.Time
}

func NewDynamoStore(client DynamoAPI, tableName string, retain time.Duration) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, retain: retain, now: time.Now}
}

func (s *DynamoStore) Name() string { return "dynamodb" }

func dynamoKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "CACHE#" + key},
		"SK": &types.AttributeValueMemberS{Value: dynamoSortKey},
	}
}

func (s *DynamoStore) Get(ctx context.Context, key string) (Entry, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       dynamoKey(key),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("getting cache item %s: %w", key, err)
	}
	if len(result.Item) == 0 {
		return Entry{}, ErrMiss
	}

	var item DynamoDBItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return Entry{}, fmt.Errorf("unmarshaling cache item %s: %w", key, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, item.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing cache timestamp %s: %w", key, err)
	}
	return Entry{Metrics: []byte(item.Data), LastUpdated: ts}, nil
}

func (s *DynamoStore) Put(ctx context.Context, key string, e Entry) error {
	item := DynamoDBItem{
		PK:        "CACHE#" + key,
		SK:        dynamoSortKey,
		Data:      string(e.Metrics),
		Timestamp: e.LastUpdated.UTC().Format(time.RFC3339Nano),
	}
	if s.retain > 0 {
		item.TTL = s.now().Add(s.retain).Unix()
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       dynamoKey(k),
		})
		if err != nil {
			return fmt.Errorf("deleting cache item %s: %w", k, err)
		}
	}
	return nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	return err
}
