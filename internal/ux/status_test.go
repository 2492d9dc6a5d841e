package ux

import (
	"bytes"
	"strings"
	"testing"

	"reqforge/internal/codegen"
)

func TestStatusBoard_RendersRoles(t *testing.T) {
	var buf bytes.Buffer
	board := NewStatusBoard(&buf)

	board.Update(codegen.StageAnalyzing, 1, "analyzing requirement", 0)

	out := buf.String()
	for _, label := range []string{"Analyzer", "Corrector", "Writer"} {
		if !strings.Contains(out, label) {
			t.Errorf("expected %q in output", label)
		}
	}
	if !strings.Contains(out, "analyzing requirement") {
		t.Error("expected the stage message in output")
	}
}

func TestStatusBoard_IssueCount(t *testing.T) {
	var buf bytes.Buffer
	board := NewStatusBoard(&buf)

	board.Update(codegen.StageRepairing, 2, "repairing requirement", 3)

	if !strings.Contains(buf.String(), "3 issue(s)") {
		t.Error("expected the issue count in output")
	}
}

func TestStatusBoard_PreviewTruncation(t *testing.T) {
	var buf bytes.Buffer
	board := NewStatusBoard(&buf)

	long := strings.Repeat("x", 200) + "\nsecond line"
	board.SetRequirementPreview(long)

	out := buf.String()
	if strings.Contains(out, "second line") {
		t.Error("preview should keep only the first line")
	}
	if !strings.Contains(out, "...") {
		t.Error("long previews should be truncated")
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("  hello\nworld"); got != "hello" {
		t.Errorf("firstLine = %q, want %q", got, "hello")
	}
	if got := firstLine("short"); got != "short" {
		t.Errorf("firstLine = %q, want %q", got, "short")
	}
}
