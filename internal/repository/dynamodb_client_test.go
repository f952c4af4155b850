package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"autodev-agent/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	lastPutInput *dynamodb.PutItemInput
	lastQueryIn  *dynamodb.QueryInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func makeTaskItem(sk, id, status string, attempts string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: "AGENT#Managing Agent"},
		"SK":       &types.AttributeValueMemberS{Value: sk},
		"taskId":   &types.AttributeValueMemberS{Value: id},
		"status":   &types.AttributeValueMemberS{Value: status},
		"attempts": &types.AttributeValueMemberN{Value: attempts},
		"response": &types.AttributeValueMemberS{Value: "goal"},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "tasks")
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }
	return c
}

func TestNewTaskRecord_Fields(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	rec := c.NewTaskRecord("Managing Agent", "Defining user requirements", "convert_user_input_to_goal", "build a site")

	require.Equal(t, "AGENT#Managing Agent", rec.PK)
	require.Equal(t, "TASK#2026-10-16T09:30:00.000000000Z#"+rec.TaskID, rec.SK)
	require.NotEmpty(t, rec.TaskID)
	require.Equal(t, "2026-10-16T09:30:00Z", rec.CreatedAt)
	require.Equal(t, c.now().Add(ttlDuration).Unix(), rec.TTL)
}

func TestTaskSK_SortsChronologically(t *testing.T) {
	base := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(120 * time.Millisecond),
		base.Add(123 * time.Millisecond),
		base.Add(123*time.Millisecond + 1),
		base.Add(time.Second),
	}
	for i := 1; i < len(times); i++ {
		prev, next := taskSK(times[i-1], "x"), taskSK(times[i], "x")
		require.Less(t, prev, next)
		require.Len(t, next, len(prev))
	}
}

func TestNewTaskRecord_UniqueIDs(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	a := c.NewTaskRecord("p", "o", "f", "i")
	b := c.NewTaskRecord("p", "o", "f", "i")
	require.NotEqual(t, a.SK, b.SK)
}

func TestRecordTask_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	rec := c.NewTaskRecord("Managing Agent", "op", "fn", "in")
	rec.Response = "out"
	rec.Attempts = 2
	rec.Status = domain.TaskStatusSucceeded

	require.NoError(t, c.RecordTask(context.Background(), rec))
	require.Equal(t, "tasks", *db.lastPutInput.TableName)
	require.Equal(t, "attribute_not_exists(PK) AND attribute_not_exists(SK)", *db.lastPutInput.ConditionExpression)
	require.Equal(t, "out", db.lastPutInput.Item["response"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "2", db.lastPutInput.Item["attempts"].(*types.AttributeValueMemberN).Value)
}

func TestRecordTask_MissingKeys(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	err := c.RecordTask(context.Background(), domain.TaskRecord{SK: "TASK#x"})
	require.ErrorContains(t, err, "required")
	err = c.RecordTask(context.Background(), domain.TaskRecord{PK: "AGENT#x"})
	require.ErrorContains(t, err, "required")
}

func TestRecordTask_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	c := mustNewClient(t, db)
	err := c.RecordTask(context.Background(), c.NewTaskRecord("p", "o", "f", "i"))
	require.ErrorContains(t, err, "RecordTask")
}

func TestListTasks_HappyPath(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		makeTaskItem("TASK#2026-10-16T10:00:00Z#b", "b", domain.TaskStatusFailed, "2"),
		makeTaskItem("TASK#2026-10-16T09:00:00Z#a", "a", domain.TaskStatusSucceeded, "1"),
	}}}
	c := mustNewClient(t, db)

	recs, err := c.ListTasks(context.Background(), "Managing Agent", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "b", recs[0].TaskID)
	require.Equal(t, 2, recs[0].Attempts)
	require.Equal(t, "goal", recs[1].Response)

	require.Equal(t, "PK = :pk AND begins_with(SK, :prefix)", *db.lastQueryIn.KeyConditionExpression)
	require.False(t, *db.lastQueryIn.ScanIndexForward)
	require.Equal(t, int32(10), *db.lastQueryIn.Limit)
}

func TestListTasks_RoundTripsRecordedItem(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	rec := c.NewTaskRecord("Managing Agent", "op", "fn", "in")
	rec.Response = "out"
	rec.Attempts = 1
	rec.DurationMillis = 42
	rec.Status = domain.TaskStatusSucceeded

	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{taskItem(rec)}}}
	c.api = db
	recs, err := c.ListTasks(context.Background(), "Managing Agent", 1)
	require.NoError(t, err)
	require.Equal(t, []domain.TaskRecord{rec}, recs)
}

func TestListTasks_ClampsLimit(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)
	_, err := c.ListTasks(context.Background(), "p", math.MaxInt32+10)
	require.NoError(t, err)
	require.Equal(t, int32(math.MaxInt32), *db.lastQueryIn.Limit)
}

func TestListTasks_NoLimit(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)
	recs, err := c.ListTasks(context.Background(), "p", 0)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.Nil(t, db.lastQueryIn.Limit)
}

func TestListTasks_QueryError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{queryErr: errors.New("ResourceNotFoundException")})
	_, err := c.ListTasks(context.Background(), "p", 5)
	require.ErrorContains(t, err, "ListTasks")
}

func TestListTasks_MalformedItem(t *testing.T) {
	item := makeTaskItem("TASK#x", "x", domain.TaskStatusSucceeded, "not-a-number")
	c := mustNewClient(t, &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}})
	_, err := c.ListTasks(context.Background(), "p", 5)
	require.ErrorContains(t, err, "attempts")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "tasks")
	require.ErrorContains(t, err, "must not be nil")
	_, err = New(&fakeDynamo{}, " ")
	require.ErrorContains(t, err, "must not be empty")
}
