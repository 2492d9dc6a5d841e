// Package codegen implements the requirement clarification and code synthesis
// pipeline: an analysis role that spots requirement defects, a repair role
// that rewrites the requirement without touching its function contract, a
// synthesis role that emits code from the clarified text, and the orchestrator
// that runs them as a bounded loop.
package codegen

import "strings"

// IssueCategory classifies a requirement defect.
type IssueCategory string

const (
	CategoryAmbiguity      IssueCategory = "ambiguity"
	CategoryInconsistency  IssueCategory = "inconsistency"
	CategoryIncompleteness IssueCategory = "incompleteness"
	CategoryConflict       IssueCategory = "conflict"
	CategoryMissingContext IssueCategory = "missing_context"
	CategoryUnderspecified IssueCategory = "underspecified"
	CategoryBoundary       IssueCategory = "boundary"
)

// Severity grades a requirement issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Decision is the analysis verdict for one round.
type Decision string

const (
	DecisionReady       Decision = "ready"
	DecisionNeedsRepair Decision = "needs_repair"
)

// NormalizeCategory maps an arbitrary backend string onto the closed category
// set, defaulting to ambiguity.
func NormalizeCategory(raw string) IssueCategory {
	c := IssueCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryAmbiguity, CategoryInconsistency, CategoryIncompleteness,
		CategoryConflict, CategoryMissingContext, CategoryUnderspecified, CategoryBoundary:
		return c
	default:
		return CategoryAmbiguity
	}
}

// NormalizeSeverity maps an arbitrary backend string onto the closed severity
// set. Critical collapses to high; anything unrecognized becomes medium.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high", "critical":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// RequirementIssue is a single defect spotted in a requirement. Immutable
// once created by the analysis parser.
type RequirementIssue struct {
	Category            IssueCategory `json:"issue_type"`
	Description         string        `json:"description"`
	Evidence            string        `json:"evidence,omitempty"`
	Severity            Severity      `json:"severity"`
	ClarifyingQuestions []string      `json:"clarifying_questions,omitempty"`
}

// AnalysisResult is the structured output of one analysis round. The
// invariant Decision == DecisionReady iff len(Issues) == 0 is enforced by the
// analyzer regardless of what the backend claimed.
type AnalysisResult struct {
	NormalizedRequirement string
	Issues                []RequirementIssue
	Decision              Decision
	Rationale             string
	RawPayload            string // verbatim extracted JSON, kept for audit
	SignatureHint         string
}

// RepairResult is the structured output of one repair invocation. When the
// revision would have changed the function contract, RevisedRequirement is
// the untouched input and AppliedFixes records the rejection.
type RepairResult struct {
	RevisedRequirement string
	AppliedFixes       []string
	OpenQuestions      []string
	RawPayload         string
	SignatureHint      string
}

// RepairRecord is the repair portion of a trace round.
type RepairRecord struct {
	AppliedFixes  []string `json:"applied_fixes"`
	OpenQuestions []string `json:"open_questions"`
	RawPayload    string   `json:"raw_payload,omitempty"`
	SignatureHint string   `json:"signature_hint,omitempty"`
}

// RoundRecord is one append-only trace element, owned by the orchestrator for
// the lifetime of a single run.
type RoundRecord struct {
	Round                 int                `json:"round"`
	Decision              Decision           `json:"decision"`
	Issues                []RequirementIssue `json:"issues"`
	NormalizedRequirement string             `json:"normalized_requirement"`
	RawPayload            string             `json:"raw_payload,omitempty"`
	SignatureHint         string             `json:"signature_hint,omitempty"`
	Repair                *RepairRecord      `json:"repair,omitempty"`
}

// SynthesisResult is the final artifact of a run. Code may be empty when
// extraction failed entirely; Notes then explains why. This is the sole
// externally persisted contract of a successful run.
type SynthesisResult struct {
	RunID                string        `json:"run_id"`
	FinalizedRequirement string        `json:"finalized_requirement"`
	Code                 string        `json:"code"`
	Notes                []string      `json:"assumptions"`
	Trace                []RoundRecord `json:"trace"`
	RepairRounds         int           `json:"correction_iterations"`
}
