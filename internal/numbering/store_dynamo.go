package numbering

import (
	"context"
	"errors"
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
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps counters in a DynamoDB table keyed by "counter_key" and commits
// with conditional writes.
type DynamoStore struct {
	api   DynamoAPI
	table string
	now   func() time.Time
}

type dynamoCounter struct {
	Key       string    `dynamodbav:"counter_key"`
	DocType   string    `dynamodbav:"doc_type"`
	Scope     string    `dynamodbav:"scope_key"`
	Value     int64     `dynamodbav:"current_value"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// NewDynamoStore constructs a DynamoStore over table.
func NewDynamoStore(api DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{api: api, table: table, now: time.Now}
}

func dynamoKey(docType DocType, scope string) string {
	return string(docType) + "#" + scope
}

func (s *DynamoStore) keyAttr(docType DocType, scope string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"counter_key": &types.AttributeValueMemberS{Value: dynamoKey(docType, scope)},
	}
}

// Read implements Store. Reads are strongly consistent so a retry sees the winner's value.
func (s *DynamoStore) Read(ctx context.Context, docType DocType, scope string) (int64, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.keyAttr(docType, scope),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, false, fmt.Errorf("numbering: get counter item: %w", err)
	}
	if len(out.Item) == 0 {
		return 0, false, nil
	}
	var item dynamoCounter
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, false, fmt.Errorf("numbering: unmarshal counter item: %w", err)
	}
	return item.Value, true, nil
}

// Commit implements Store.
func (s *DynamoStore) Commit(ctx context.Context, docType DocType, scope string, prev, next int64) error {
	if err := checkCommit(docType, prev, next); err != nil {
		return err
	}
	prevAttr, err := attributevalue.Marshal(prev)
	if err != nil {
		return fmt.Errorf("numbering: marshal prev: %w", err)
	}

	if prev == 0 {
		item, err := attributevalue.MarshalMap(dynamoCounter{
			Key:       dynamoKey(docType, scope),
			DocType:   string(docType),
			Scope:     scope,
			Value:     next,
			UpdatedAt: s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("numbering: marshal counter item: %w", err)
		}
		_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(s.table),
			Item:                      item,
			ConditionExpression:       aws.String("attribute_not_exists(counter_key) OR current_value = :prev"),
			ExpressionAttributeValues: map[string]types.AttributeValue{":prev": prevAttr},
		})
		return mapDynamoErr(err)
	}

	nextAttr, err := attributevalue.Marshal(next)
	if err != nil {
		return fmt.Errorf("numbering: marshal next: %w", err)
	}
	updatedAttr, err := attributevalue.Marshal(s.now().UTC())
	if err != nil {
		return fmt.Errorf("numbering: marshal updated_at: %w", err)
	}
	_, err = s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 s.keyAttr(docType, scope),
		UpdateExpression:    aws.String("SET current_value = :next, updated_at = :updated"),
		ConditionExpression: aws.String("current_value = :prev"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prev":    prevAttr,
			":next":    nextAttr,
			":updated": updatedAttr,
		},
	})
	return mapDynamoErr(err)
}

func mapDynamoErr(err error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrConflict
	}
	return fmt.Errorf("numbering: write counter item: %w", err)
}
