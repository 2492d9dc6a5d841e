// Package ux renders pipeline progress in the terminal. The status board
// draws one box per pipeline role and highlights whichever is active, redrawn
// in place as the orchestrator reports progress.
package ux

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"reqforge/internal/codegen"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#5c6773")
	warning = lipgloss.Color("#FFC107")

	idleBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Foreground(muted).
		Padding(0, 1).
		Width(22).
		Align(lipgloss.Center)

	activeBox = idleBox.
		BorderForeground(accent).
		Foreground(accent).
		Bold(true)

	doneBox = idleBox.
		BorderForeground(accent).
		Foreground(accent)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	previewStyle = lipgloss.NewStyle().
			Foreground(muted).
			Italic(true).
			Width(72)

	issueStyle = lipgloss.NewStyle().Foreground(warning)
)

// clearScreen moves the cursor home and wipes everything below it, so each
// render overwrites the previous frame instead of scrolling.
const clearScreen = "\033[H\033[2J"

type roleBox struct {
	label  string
	stages []codegen.Stage
}

var roleBoxes = []roleBox{
	{label: "Analyzer", stages: []codegen.Stage{codegen.StageAnalyzing}},
	{label: "Corrector", stages: []codegen.Stage{codegen.StageRepairing}},
	{label: "Writer", stages: []codegen.Stage{codegen.StageSynthesizing}},
}

// StatusBoard is a codegen.StatusObserver that paints a live pipeline view.
// Safe for use from a single orchestrator goroutine; the mutex guards against
// a concurrent preview update.
type StatusBoard struct {
	mu      sync.Mutex
	out     io.Writer
	stage   codegen.Stage
	round   int
	message string
	issues  int
	preview string
}

// NewStatusBoard creates a board writing to out, typically os.Stdout.
func NewStatusBoard(out io.Writer) *StatusBoard {
	return &StatusBoard{out: out}
}

// Update implements codegen.StatusObserver.
func (b *StatusBoard) Update(stage codegen.Stage, round int, message string, issueCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stage = stage
	b.round = round
	b.message = message
	b.issues = issueCount
	b.render()
}

// SetRequirementPreview implements codegen.StatusObserver.
func (b *StatusBoard) SetRequirementPreview(requirement string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.preview = firstLine(requirement)
	b.render()
}

func (b *StatusBoard) render() {
	var frame strings.Builder
	frame.WriteString(clearScreen)
	frame.WriteString(titleStyle.Render("reqforge"))
	if b.round > 0 && b.stage != codegen.StageDone {
		frame.WriteString(lipgloss.NewStyle().Foreground(muted).Render(
			fmt.Sprintf("  round %d", b.round)))
	}
	frame.WriteString("\n\n")

	boxes := make([]string, 0, len(roleBoxes))
	for _, rb := range roleBoxes {
		style := idleBox
		if b.stage == codegen.StageDone {
			style = doneBox
		} else {
			for _, s := range rb.stages {
				if s == b.stage {
					style = activeBox
				}
			}
		}
		boxes = append(boxes, style.Render(rb.label))
	}
	frame.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	frame.WriteString("\n")

	if b.message != "" {
		frame.WriteString(b.message)
		if b.issues > 0 {
			frame.WriteString("  ")
			frame.WriteString(issueStyle.Render(fmt.Sprintf("%d issue(s)", b.issues)))
		}
		frame.WriteString("\n")
	}
	if b.preview != "" {
		frame.WriteString(previewStyle.Render(b.preview))
		frame.WriteString("\n")
	}

	fmt.Fprint(b.out, frame.String())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	const max = 70
	if len(s) > max {
		s = s[:max-3] + "..."
	}
	return s
}
