package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"autodev-agent/internal/domain"
)

const (
	pkPrefixAgent = "AGENT#"
	skPrefixTask  = "TASK#"
	ttlDuration   = 30 * 24 * time.Hour

	// skTimeLayout is fixed width so sort keys compare in time order.
	skTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client stores task request records in a single DynamoDB table keyed by
// agent position.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func agentPK(position string) string {
	return pkPrefixAgent + strings.TrimSpace(position)
}

// taskSK sorts chronologically; the id keeps same-instant records distinct.
func taskSK(ts time.Time, id string) string {
	return skPrefixTask + ts.UTC().Format(skTimeLayout) + "#" + id
}

// NewTaskRecord fills the keys, id, timestamp and TTL of a record.
func (c *Client) NewTaskRecord(position, operation, function, input string) domain.TaskRecord {
	now := c.now().UTC()
	id := uuid.NewString()
	return domain.TaskRecord{
		PK:             agentPK(position),
		SK:             taskSK(now, id),
		TaskID:         id,
		AgentPosition:  position,
		AgentOperation: operation,
		Function:       function,
		Input:          input,
		CreatedAt:      now.Format(time.RFC3339),
		TTL:            now.Add(ttlDuration).Unix(),
	}
}

// RecordTask persists a task record. Existing keys are never overwritten.
func (c *Client) RecordTask(ctx context.Context, rec domain.TaskRecord) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: RecordTask: PK and SK are required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                taskItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordTask: %w", err)
	}
	return nil
}

// ListTasks returns up to limit records for an agent position, newest first.
func (c *Client) ListTasks(ctx context.Context, position string, limit int) ([]domain.TaskRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: agentPK(position)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixTask},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(min(limit, math.MaxInt32)))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: ListTasks query: %w", err)
	}

	recs := make([]domain.TaskRecord, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToTask(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListTasks unmarshal: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func taskItem(rec domain.TaskRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: rec.PK},
		"SK":             &types.AttributeValueMemberS{Value: rec.SK},
		"taskId":         &types.AttributeValueMemberS{Value: rec.TaskID},
		"agentPosition":  &types.AttributeValueMemberS{Value: rec.AgentPosition},
		"agentOperation": &types.AttributeValueMemberS{Value: rec.AgentOperation},
		"function":       &types.AttributeValueMemberS{Value: rec.Function},
		"input":          &types.AttributeValueMemberS{Value: rec.Input},
		"response":       &types.AttributeValueMemberS{Value: rec.Response},
		"attempts":       &types.AttributeValueMemberN{Value: strconv.Itoa(rec.Attempts)},
		"durationMs":     &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.DurationMillis, 10)},
		"status":         &types.AttributeValueMemberS{Value: rec.Status},
		"createdAt":      &types.AttributeValueMemberS{Value: rec.CreatedAt},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}
}

func itemToTask(item map[string]types.AttributeValue) (domain.TaskRecord, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.TaskRecord{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.TaskRecord{}, err
	}
	id, err := strAttr(item, "taskId")
	if err != nil {
		return domain.TaskRecord{}, err
	}
	status, err := strAttr(item, "status")
	if err != nil {
		return domain.TaskRecord{}, err
	}
	attempts, err := intAttr(item, "attempts")
	if err != nil {
		return domain.TaskRecord{}, err
	}

	rec := domain.TaskRecord{
		PK:       pk,
		SK:       sk,
		TaskID:   id,
		Status:   status,
		Attempts: int(attempts),
	}
	// optional
	rec.AgentPosition, _ = strAttr(item, "agentPosition")
	rec.AgentOperation, _ = strAttr(item, "agentOperation")
	rec.Function, _ = strAttr(item, "function")
	rec.Input, _ = strAttr(item, "input")
	rec.Response, _ = strAttr(item, "response")
	rec.CreatedAt, _ = strAttr(item, "createdAt")
	if ms, err := intAttr(item, "durationMs"); err == nil {
		rec.DurationMillis = ms
	}
	if ttl, err := intAttr(item, "ttl"); err == nil {
		rec.TTL = ttl
	}
	return rec, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
