package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reqforge/internal/perception"
)

func newTestAnalyzer(client perception.LLMClient) *Analyzer {
	return NewAnalyzer(client, zap.NewNop(), perception.CompletionOptions{})
}

func TestAnalyzer_ReadyVerdict(t *testing.T) {
	client := &scriptedClient{responses: []string{analysisResponse(readyAnalysis)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "def add(a: int, b: int) -> int:\n    Add two numbers.", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionReady, res.Decision)
	assert.Empty(t, res.Issues)
	assert.Equal(t, "def add(a: int, b: int) -> int:", res.SignatureHint)
	assert.Contains(t, res.NormalizedRequirement, "Return the sum")
}

func TestAnalyzer_IssuesForceNeedsRepair(t *testing.T) {
	// Backend claims ready while reporting issues; the issue list wins.
	body := `{
	  "decision": "ready",
	  "reasoning": "fine",
	  "issues": [
	    {"issue_type": "ambiguity", "severity": "critical", "description": "unclear rounding", "evidence": "about half"}
	  ],
	  "normalized_requirement": "original text",
	  "original_function_signature": "def f(x: int) -> int:"
	}`
	client := &scriptedClient{responses: []string{analysisResponse(body)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "original text", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionNeedsRepair, res.Decision)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, CategoryAmbiguity, res.Issues[0].Category)
	assert.Equal(t, SeverityHigh, res.Issues[0].Severity, "critical collapses to high")
}

func TestAnalyzer_EmptyIssuesForceReady(t *testing.T) {
	body := `{
	  "decision": "needs_repair",
	  "reasoning": "hedging",
	  "issues": [],
	  "normalized_requirement": "text",
	  "original_function_signature": ""
	}`
	client := &scriptedClient{responses: []string{analysisResponse(body)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.Equal(t, DecisionReady, res.Decision)
}

func TestAnalyzer_LegacyIssueFields(t *testing.T) {
	body := `{
	  "decision": "needs_repair",
	  "issues": [
	    {"type": "contradiction", "severity": "bogus", "description": "says X, shows Y", "location": "line 2", "suggestion": "pick one"}
	  ],
	  "normalized_requirement": "text"
	}`
	client := &scriptedClient{responses: []string{analysisResponse(body)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "text", nil)
	require.NoError(t, err)

	require.Len(t, res.Issues, 1)
	issue := res.Issues[0]
	assert.Equal(t, CategoryAmbiguity, issue.Category, "unknown category defaults to ambiguity")
	assert.Equal(t, SeverityMedium, issue.Severity, "unknown severity defaults to medium")
	assert.Equal(t, "line 2", issue.Evidence)
	assert.Equal(t, []string{"pick one"}, issue.ClarifyingQuestions)
}

func TestAnalyzer_DeduplicatesIssues(t *testing.T) {
	body := `{
	  "decision": "needs_repair",
	  "issues": [
	    {"issue_type": "ambiguity", "severity": "medium", "description": "unclear rounding"},
	    {"issue_type": "ambiguity", "severity": "medium", "description": "unclear rounding"},
	    {"issue_type": "ambiguity", "severity": "high", "description": "Unclear Rounding  "},
	    {"issue_type": "incompleteness", "severity": "low", "description": "missing empty-input case"}
	  ],
	  "normalized_requirement": "text"
	}`
	client := &scriptedClient{responses: []string{analysisResponse(body)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "text", nil)
	require.NoError(t, err)

	require.Len(t, res.Issues, 2, "repeated descriptions collapse to the first occurrence")
	assert.Equal(t, "unclear rounding", res.Issues[0].Description)
	assert.Equal(t, SeverityMedium, res.Issues[0].Severity, "the first occurrence wins")
	assert.Equal(t, "missing empty-input case", res.Issues[1].Description)
}

func TestAnalyzer_DropsEmptyDescriptions(t *testing.T) {
	body := `{
	  "decision": "needs_repair",
	  "issues": [
	    {"issue_type": "ambiguity", "severity": "low", "description": "   "},
	    {"issue_type": "incompleteness", "severity": "low", "description": "real issue"}
	  ],
	  "normalized_requirement": "text"
	}`
	client := &scriptedClient{responses: []string{analysisResponse(body)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "text", nil)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "real issue", res.Issues[0].Description)
}

func TestAnalyzer_MalformedOutputDefaultsToReady(t *testing.T) {
	client := &scriptedClient{responses: []string{"I cannot produce JSON today."}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "the requirement", nil)
	require.NoError(t, err)

	assert.Equal(t, DecisionReady, res.Decision)
	assert.Equal(t, "the requirement", res.NormalizedRequirement)
	assert.Empty(t, res.Issues)
}

func TestAnalyzer_HistoryDigestInPrompt(t *testing.T) {
	client := &scriptedClient{responses: []string{analysisResponse(readyAnalysis)}}
	a := newTestAnalyzer(client)

	history := []RoundRecord{{
		Round:    1,
		Decision: DecisionNeedsRepair,
		Issues:   []RequirementIssue{{Category: CategoryAmbiguity, Description: "vague threshold", Severity: SeverityMedium}},
	}}

	_, err := a.Process(context.Background(), "text", history)
	require.NoError(t, err)

	require.Len(t, client.calls, 1)
	userMsg := client.calls[0][len(client.calls[0])-1].Content
	assert.True(t, strings.Contains(userMsg, "vague threshold"),
		"prior issue descriptions should be surfaced to the backend")
	assert.Contains(t, userMsg, "repaired 1 time(s)")
}

func TestAnalyzer_StructuredReasoning(t *testing.T) {
	body := `{
	  "decision": "ready",
	  "reasoning": {"summary": "all clear", "confidence": "high"},
	  "issues": [],
	  "normalized_requirement": "text"
	}`
	client := &scriptedClient{responses: []string{analysisResponse(body)}}
	a := newTestAnalyzer(client)

	res, err := a.Process(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Rationale, "all clear")
}
