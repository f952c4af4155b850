package webcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// CheckStatusCode issues a GET to url and returns the response status code.
// A nil client uses a default client with a 10s timeout.
func CheckStatusCode(ctx context.Context, client *http.Client, url string) (int, error) {
	if url == "" {
		return 0, errors.New("webcheck: url must not be empty")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("webcheck: create request: %w", err)
	}
	res, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webcheck: get %s: %w", url, err)
	}
	_ = res.Body.Close()
	return res.StatusCode, nil
}
