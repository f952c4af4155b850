package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"autodev-agent/internal/domain"
)

func TestPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTasks([]domain.TaskRecord{
		{CreatedAt: "2026-10-16T10:00:00Z", Function: "print_site_urls", Status: domain.TaskStatusFailed, Attempts: 2, DurationMillis: 1500, TaskID: "b"},
		{CreatedAt: "2026-10-16T09:00:00Z", Function: "print_project_scope", Status: domain.TaskStatusSucceeded, Attempts: 1, DurationMillis: 900, TaskID: "a"},
	})

	out := buf.String()
	require.Contains(t, out, "FUNCTION")
	require.Contains(t, out, "1500ms")
	require.Less(t, strings.Index(out, "print_site_urls"), strings.Index(out, "print_project_scope"))
}

func TestPrintTasks_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTasks(nil)
	require.Contains(t, buf.String(), "CREATED")
	require.NotContains(t, buf.String(), "ms")
}
