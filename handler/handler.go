package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"autodev-agent/internal/aifunc"
	"autodev-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

const (
	defaultAgentPosition  = "Lambda Agent"
	defaultAgentOperation = "Running AI function"
)

type TaskRunner interface {
	Request(ctx context.Context, in usecase.TaskInput) (string, error)
	RequestTyped(ctx context.Context, in usecase.TaskInput) (any, error)
}

type taskRequest struct {
	Function       string `json:"function"`
	Input          string `json:"input"`
	AgentPosition  string `json:"agentPosition"`
	AgentOperation string `json:"agentOperation"`
	Decode         bool   `json:"decode"`
}

type taskResponse struct {
	Function string `json:"function"`
	Result   any    `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handler runs AI functions for API Gateway proxy requests.
type Handler struct {
	tasks TaskRunner
	log   *slog.Logger
}

func NewHandler(tasks TaskRunner) (*Handler, error) {
	if tasks == nil {
		return nil, errors.New("handler: task runner must not be nil")
	}
	return &Handler{tasks: tasks, log: slog.Default()}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.log.With("correlationId", correlationID)

	if event.HTTPMethod != "" && event.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, correlationID, errorResponse{Error: "METHOD_NOT_ALLOWED"}), nil
	}

	var req taskRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		log.Warn("invalid request body", "err", err)
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_body"}), nil
	}
	fn, ok := aifunc.Lookup(req.Function)
	if !ok {
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "unknown_function"}), nil
	}

	in := usecase.TaskInput{
		Context:        req.Input,
		AgentPosition:  orDefault(req.AgentPosition, defaultAgentPosition),
		AgentOperation: orDefault(req.AgentOperation, defaultAgentOperation),
		FuncName:       strings.TrimSpace(req.Function),
		Func:           fn,
	}

	var (
		result any
		err    error
	)
	if req.Decode {
		result, err = h.tasks.RequestTyped(ctx, in)
	} else {
		result, err = h.tasks.Request(ctx, in)
	}
	if err != nil {
		status, body := mapError(err)
		log.Error("task request failed", "function", in.FuncName, "status", status, "err", err)
		return respond(status, correlationID, body), nil
	}

	log.Info("task request completed", "function", in.FuncName)
	return respond(http.StatusOK, correlationID, taskResponse{Function: in.FuncName, Result: result}), nil
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	body := errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, body
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, body
	case usecase.ErrorUpstream, usecase.ErrorMalformedResponse:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal), Reason: ucErr.Reason}
	}
}

func respond(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(b),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
