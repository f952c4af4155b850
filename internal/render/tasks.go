package render

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"autodev-agent/internal/domain"
)

var taskHeaders = []string{"CREATED", "FUNCTION", "STATUS", "ATTEMPTS", "DURATION", "TASK"}

// PrintTasks writes the task log as a table, one row per record.
func (p *Printer) PrintTasks(recs []domain.TaskRecord) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.renderer.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(taskHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := p.renderer.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 2 && row >= 0 && row < len(recs) && recs[row].Status == domain.TaskStatusFailed {
				return s.Foreground(kindColors[Issue])
			}
			return s
		})
	for _, r := range recs {
		t.Row(r.CreatedAt, r.Function, r.Status, strconv.Itoa(r.Attempts), strconv.FormatInt(r.DurationMillis, 10)+"ms", r.TaskID)
	}
	_, _ = fmt.Fprintln(p.w, t.Render())
}
