package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"autodev-agent/internal/aifunc"
	"autodev-agent/internal/domain"
)

// maxAttempts is the initial call plus exactly one retry.
const maxAttempts = 2

var errEmptyResponse = errors.New("usecase: llm returned an empty response")

type LLMClient interface {
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Reporter announces each AI call before it is made.
type Reporter interface {
	AICall(agentPosition, agentOperation string)
}

// TaskRecorder persists an audit record per task request.
type TaskRecorder interface {
	NewTaskRecord(position, operation, function, input string) domain.TaskRecord
	RecordTask(ctx context.Context, rec domain.TaskRecord) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type TaskInput struct {
	Context        string
	AgentPosition  string
	AgentOperation string
	FuncName       string
	Func           aifunc.Func
}

type TaskService struct {
	llm      LLMClient
	reporter Reporter
	recorder TaskRecorder
	log      *slog.Logger
}

type TaskOption func(*TaskService)

func WithReporter(r Reporter) TaskOption {
	return func(s *TaskService) {
		s.reporter = r
	}
}

func WithRecorder(r TaskRecorder) TaskOption {
	return func(s *TaskService) {
		s.recorder = r
	}
}

func WithLogger(l *slog.Logger) TaskOption {
	return func(s *TaskService) {
		if l != nil {
			s.log = l
		}
	}
}

func NewTaskService(llm LLMClient, opts ...TaskOption) (*TaskService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	s := &TaskService{llm: llm, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Request extends the AI function with in.Context, sends it as a single
// system message and retries once on failure.
func (s *TaskService) Request(ctx context.Context, in TaskInput) (string, error) {
	if in.Func == nil {
		return "", newError(ErrorInvalidInput, "missing_function", nil)
	}
	if strings.TrimSpace(in.Context) == "" {
		return "", newError(ErrorInvalidInput, "empty_context", nil)
	}

	msg := ExtendAIFunction(in.Func, in.Context)
	if s.reporter != nil {
		s.reporter.AICall(in.AgentPosition, in.AgentOperation)
	}

	start := time.Now()
	resp, attempts, err := s.callWithRetry(ctx, msg)
	s.record(ctx, in, resp, attempts, time.Since(start), err)

	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return "", newError(ErrorRateLimited, "llm_rate_limited", err)
		}
		return "", newError(ErrorUpstream, "llm_error", err)
	}
	return resp, nil
}

// RequestDecoded performs Request and decodes the response as a single JSON
// value of type T.
func RequestDecoded[T any](ctx context.Context, s *TaskService, in TaskInput) (T, error) {
	var zero T
	raw, err := s.Request(ctx, in)
	if err != nil {
		return zero, err
	}
	out, err := decodeJSON[T](raw)
	if err != nil {
		return zero, newError(ErrorMalformedResponse, "llm_malformed_response", err)
	}
	return out, nil
}

func (s *TaskService) callWithRetry(ctx context.Context, msg domain.ChatMessage) (string, int, error) {
	var lastErr error
	attempts := 0
	for attempts < maxAttempts {
		attempts++
		resp, err := s.llm.Chat(ctx, []domain.ChatMessage{msg})
		if err == nil && strings.TrimSpace(resp) == "" {
			err = errEmptyResponse
		}
		if err == nil {
			return resp, attempts, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempts < maxAttempts {
			s.log.Warn("llm call failed, retrying", "attempt", attempts, "err", err)
		}
	}
	return "", attempts, lastErr
}

func (s *TaskService) record(ctx context.Context, in TaskInput, resp string, attempts int, elapsed time.Duration, callErr error) {
	if s.recorder == nil {
		return
	}
	rec := s.recorder.NewTaskRecord(in.AgentPosition, in.AgentOperation, in.FuncName, in.Context)
	rec.Response = resp
	rec.Attempts = attempts
	rec.DurationMillis = elapsed.Milliseconds()
	rec.Status = domain.TaskStatusSucceeded
	if callErr != nil {
		rec.Status = domain.TaskStatusFailed
	}
	// A cancelled request is still worth recording.
	if err := s.recorder.RecordTask(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error("failed to record task", "taskId", rec.TaskID, "err", err)
	}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

// RequestJSON performs Request and returns the response as validated raw JSON.
func (s *TaskService) RequestJSON(ctx context.Context, in TaskInput) (json.RawMessage, error) {
	return RequestDecoded[json.RawMessage](ctx, s, in)
}

type typedRequest func(ctx context.Context, s *TaskService, in TaskInput) (any, error)

// typedRequests maps AI functions with a structured answer to the type their
// response must decode into.
var typedRequests = map[string]typedRequest{
	"print_project_scope":      requestAs[domain.ProjectScope],
	"print_rest_api_endpoints": requestAs[[]domain.RouteObject],
	"print_site_urls":          requestAs[[]string],
}

func requestAs[T any](ctx context.Context, s *TaskService, in TaskInput) (any, error) {
	out, err := RequestDecoded[T](ctx, s, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestTyped decodes the response into the structure registered for
// in.FuncName. Functions without one fall back to RequestJSON.
func (s *TaskService) RequestTyped(ctx context.Context, in TaskInput) (any, error) {
	if req, ok := typedRequests[strings.TrimSpace(in.FuncName)]; ok {
		return req(ctx, s, in)
	}
	raw, err := s.RequestJSON(ctx, in)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
