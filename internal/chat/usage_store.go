package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// TokenUsageRecord is one month's counter row.
type TokenUsageRecord struct {
	Month     string `dynamodbav:"month" json:"month"`
	Tokens    int64  `dynamodbav:"tokens" json:"tokens"`
	UpdatedAt string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// UsageTable persists monthly token counters in DynamoDB. The table is keyed
// by the month string; rows are never deleted here.
type UsageTable struct {
	client    dynamoAPI
	tableName string
}

var _ UsageStore = (*UsageTable)(nil)

// NewUsageTable builds a store backed by the provided DynamoDB client.
func NewUsageTable(client dynamoAPI, tableName string) *UsageTable {
	if client == nil {
		panic("chat: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("chat: table name cannot be empty")
	}
	return &UsageTable{client: client, tableName: tableName}
}

// AddTokens adds to (or initializes) the month's counter in a single
// UpdateItem call. The ADD action is the atomic read-modify-write: a separate
// read-then-write would under-count under concurrent requests.
func (s *UsageTable) AddTokens(ctx context.Context, month string, tokens int64) (int64, error) {
	if month == "" {
		return 0, errors.New("chat: month key required")
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"month": &types.AttributeValueMemberS{Value: month},
		},
		// MONTH is a DynamoDB reserved word, hence the expression aliases.
		UpdateExpression: aws.String("SET #updated = :updated ADD #tokens :n"),
		ExpressionAttributeNames: map[string]string{
			"#tokens":  "tokens",
			"#updated": "updatedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":       &types.AttributeValueMemberN{Value: strconv.FormatInt(tokens, 10)},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("chat: failed to add token usage for %s: %w", month, err)
	}

	attr, ok := out.Attributes["tokens"]
	if !ok {
		return 0, fmt.Errorf("chat: usage update for %s returned no counter", month)
	}
	n, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("chat: usage counter for %s is not numeric", month)
	}
	total, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chat: failed to decode usage counter for %s: %w", month, err)
	}
	return total, nil
}

// GetTokens reads the month's counter; a missing row is zero usage.
func (s *UsageTable) GetTokens(ctx context.Context, month string) (int64, error) {
	if month == "" {
		return 0, errors.New("chat: month key required")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"month": &types.AttributeValueMemberS{Value: month},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("chat: failed to read token usage for %s: %w", month, err)
	}
	if out.Item == nil {
		return 0, nil
	}

	var record TokenUsageRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return 0, fmt.Errorf("chat: failed to decode token usage for %s: %w", month, err)
	}
	return record.Tokens, nil
}
