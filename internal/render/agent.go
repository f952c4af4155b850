// Package render prints agent status lines to a terminal.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Kind selects the colour of an agent statement.
type Kind int

const (
	AICall Kind = iota
	UnitTest
	Issue
)

var kindColors = map[Kind]lipgloss.Color{
	AICall:   lipgloss.Color("6"), // cyan
	UnitTest: lipgloss.Color("5"), // magenta
	Issue:    lipgloss.Color("1"), // red
}

// Printer writes agent messages to w, colouring them when w is a terminal.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, renderer: lipgloss.NewRenderer(w)}
}

// PrintAgentMessage prints "Agent: <position>: " followed by the statement in
// the colour of kind.
func (p *Printer) PrintAgentMessage(kind Kind, position, statement string) {
	label := p.renderer.NewStyle().Foreground(lipgloss.Color("2")).Render("Agent: " + position + ": ")
	color, ok := kindColors[kind]
	if !ok {
		color = kindColors[AICall]
	}
	text := p.renderer.NewStyle().Foreground(color).Render(statement)
	_, _ = fmt.Fprintln(p.w, label+text)
}

// AICall reports an outgoing AI call.
func (p *Printer) AICall(position, operation string) {
	p.PrintAgentMessage(AICall, position, operation)
}
