package domain

// Task outcomes stored in TaskRecord.Status.
const (
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
)

// TaskRecord is a persisted audit entry for one AI task request.
type TaskRecord struct {
	PK             string
	SK             string
	TaskID         string
	AgentPosition  string
	AgentOperation string
	Function       string
	Input          string
	Response       string
	Attempts       int
	DurationMillis int64
	Status         string
	CreatedAt      string
	TTL            int64
}
