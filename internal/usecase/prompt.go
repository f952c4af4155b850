package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"autodev-agent/internal/aifunc"
	"autodev-agent/internal/domain"
)

// ExtendAIFunction wraps the rendered AI function in instructions that keep
// the model to printing the function's return value only.
func ExtendAIFunction(fn aifunc.Func, input string) domain.ChatMessage {
	content := fmt.Sprintf(
		"FUNCTION %s\n"+
			"    INSTRUCTION: You are a function printer. \n"+
			"    You ONLY print the results of functions. Nothing else. No commentary. \n"+
			"    Here is the input to the function: %s.\n"+
			"    Print out what the function will return.",
		fn(input), input,
	)
	return domain.ChatMessage{Role: domain.RoleSystem, Content: content}
}

// decodeJSON decodes raw as exactly one JSON value. Unknown fields are
// accepted; trailing values are not.
func decodeJSON[T any](raw string) (T, error) {
	var out T
	dec := json.NewDecoder(bytes.NewBufferString(strings.TrimSpace(raw)))
	if err := dec.Decode(&out); err != nil {
		var zero T
		return zero, fmt.Errorf("usecase: decode llm response: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var zero T
		if err == nil {
			return zero, errors.New("usecase: decode llm response: multiple JSON values")
		}
		return zero, fmt.Errorf("usecase: decode llm response trailing data: %w", err)
	}
	return out, nil
}
