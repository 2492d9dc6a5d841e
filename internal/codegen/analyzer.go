package codegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reqforge/internal/extract"
	"reqforge/internal/perception"
)

const analyzerOutputTag = "ANALYSIS"

const analyzerSystemPrompt = `You are the Analyzer. Identify issues that prevent correct code generation.

## GOLDEN RULES
1. PRESERVE the function signature EXACTLY (number of parameters, param types).
2. DERIVE behavior from examples when the description is unclear.
3. You FIND problems, you do not fix them.

## ISSUE TYPES
- ambiguity: phrasing like "or", "e.g.", "certain", "some" where the examples do not settle which interpretation is correct.
- inconsistency: the description says X but the examples show Y and the correct behavior cannot be determined.
- incompleteness: edge-case handling or core behavior that cannot be inferred from the description, signature, or examples.

Report an issue ONLY when the examples do not resolve it. Common conventions (empty input -> empty output, None -> error) can be inferred and are NOT issues.

## DECISION
- "ready": the behavior is clear or inferable and code can be written.
- "needs_repair": true ambiguity remains that prevents implementation.

## normalized_requirement RULES
When decision = "needs_repair": normalized_requirement MUST be the EXACT original requirement text, unchanged. Do not resolve anything; the repair step handles fixes.
When decision = "ready": normalized_requirement is your clarified version.

## OUTPUT FORMAT
<ANALYSIS>
{
  "decision": "ready" | "needs_repair",
  "reasoning": "why you decided as you did",
  "issues": [
    {
      "issue_type": "ambiguity" | "inconsistency" | "incompleteness",
      "severity": "low" | "medium" | "high",
      "description": "what the issue is",
      "evidence": "the phrase or example that shows it",
      "clarifying_questions": ["question that would resolve it"]
    }
  ],
  "normalized_requirement": "exact original text if needs_repair; clarified version if ready",
  "original_function_signature": "the exact function signature from the requirement, e.g. 'def name(param: Type) -> Return:'"
}
</ANALYSIS>

If the requirement has already been repaired and the issues are resolved, return "ready" with an empty issues list.`

// Analyzer classifies a requirement as ready or needing repair and emits the
// issue list. It holds a scratch conversation that is reset at the start of
// every Process call; no requirement state survives between rounds.
type Analyzer struct {
	client       perception.LLMClient
	logger       *zap.Logger
	opts         perception.CompletionOptions
	conversation []perception.ChatMessage
}

// NewAnalyzer creates the analysis role.
func NewAnalyzer(client perception.LLMClient, logger *zap.Logger, opts perception.CompletionOptions) *Analyzer {
	return &Analyzer{client: client, logger: logger, opts: opts}
}

func (a *Analyzer) resetConversation() {
	a.conversation = a.conversation[:0]
	a.conversation = append(a.conversation, perception.ChatMessage{
		Role:    perception.RoleSystem,
		Content: analyzerSystemPrompt,
	})
}

// Process analyzes the requirement and returns structured findings. Prior
// rounds are summarized so the backend can recognize already-fixed issues.
// Only a backend call failure is returned as an error; malformed output
// degrades to a safe ready-with-no-issues default.
func (a *Analyzer) Process(ctx context.Context, requirement string, history []RoundRecord) (AnalysisResult, error) {
	a.resetConversation()

	var payload strings.Builder
	payload.WriteString("<REQUIREMENT>\n")
	payload.WriteString(strings.TrimSpace(requirement))
	payload.WriteString("\n</REQUIREMENT>\n\n")

	if digest := historyDigest(history); len(digest) > 0 {
		fmt.Fprintf(&payload, "CONTEXT: This requirement has been repaired %d time(s).\n", len(history))
		fmt.Fprintf(&payload, "Previously identified issues: %s\n", strings.Join(digest, "; "))
		payload.WriteString("If these issues are NOW RESOLVED in the requirement above, return 'ready' with an empty issues list. Only report NEW issues.\n\n")
	}

	payload.WriteString("Analyze and return your assessment.")

	a.conversation = append(a.conversation, perception.ChatMessage{
		Role:    perception.RoleUser,
		Content: payload.String(),
	})

	response, err := a.client.Complete(ctx, a.conversation, a.opts)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("analysis backend call failed: %w", err)
	}

	return a.parseResponse(response, requirement), nil
}

// historyDigest returns up to three previously reported issue descriptions.
func historyDigest(history []RoundRecord) []string {
	var digest []string
	for _, rec := range history {
		for _, issue := range rec.Issues {
			if issue.Description == "" {
				continue
			}
			digest = append(digest, issue.Description)
			if len(digest) == 3 {
				return digest
			}
		}
	}
	return digest
}

type analysisPayload struct {
	Decision              string          `json:"decision"`
	Reasoning             json.RawMessage `json:"reasoning"`
	Issues                []issuePayload  `json:"issues"`
	NormalizedRequirement string          `json:"normalized_requirement"`
	Signature             string          `json:"original_function_signature"`
}

// issuePayload tolerates both the current and the legacy field names the
// backends have been seen emitting.
type issuePayload struct {
	IssueType           string   `json:"issue_type"`
	Type                string   `json:"type"`
	Description         string   `json:"description"`
	Evidence            string   `json:"evidence"`
	Location            string   `json:"location"`
	Severity            string   `json:"severity"`
	ClarifyingQuestions []string `json:"clarifying_questions"`
	Suggestion          string   `json:"suggestion"`
}

func (a *Analyzer) parseResponse(response, fallbackRequirement string) AnalysisResult {
	blob := extract.TaggedJSON(response, analyzerOutputTag)

	var data analysisPayload
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		// The loop must never deadlock on unparseable analysis output.
		a.logger.Warn("failed to parse analysis output, defaulting to ready",
			zap.Error(err))
		return AnalysisResult{
			NormalizedRequirement: fallbackRequirement,
			Decision:              DecisionReady,
			Rationale:             "failed to parse analysis output; defaulting to original requirement",
			RawPayload:            blob,
		}
	}

	var issues []RequirementIssue
	seen := map[string]bool{}
	for _, item := range data.Issues {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}

		// Backends sometimes repeat a finding; keep the first occurrence.
		key := strings.ToLower(desc)
		if seen[key] {
			continue
		}
		seen[key] = true

		category := item.IssueType
		if category == "" {
			category = item.Type
		}
		evidence := item.Evidence
		if evidence == "" {
			evidence = item.Location
		}
		questions := item.ClarifyingQuestions
		if len(questions) == 0 && item.Suggestion != "" {
			questions = []string{item.Suggestion}
		}

		issues = append(issues, RequirementIssue{
			Category:            NormalizeCategory(category),
			Description:         desc,
			Evidence:            evidence,
			Severity:            NormalizeSeverity(item.Severity),
			ClarifyingQuestions: questions,
		})
	}

	// The decision override: a non-empty issue list forces needs_repair and
	// an empty one forces ready, regardless of the backend's stated decision.
	// The loop's termination condition relies on this.
	rawDecision := strings.ToLower(strings.TrimSpace(data.Decision))
	decision := DecisionReady
	if len(issues) > 0 {
		decision = DecisionNeedsRepair
		a.logger.Info("analysis found issues, requiring repair", zap.Int("issues", len(issues)))
	} else if rawDecision == string(DecisionNeedsRepair) || rawDecision == "needs_clarification" || rawDecision == "needs_correction" {
		a.logger.Info("backend said needs repair but reported no issues, overriding to ready")
	}

	normalized := strings.TrimSpace(data.NormalizedRequirement)
	if normalized == "" {
		normalized = fallbackRequirement
	}

	return AnalysisResult{
		NormalizedRequirement: normalized,
		Issues:                issues,
		Decision:              decision,
		Rationale:             rationaleString(data.Reasoning),
		RawPayload:            blob,
		SignatureHint:         strings.TrimSpace(data.Signature),
	}
}

// rationaleString accepts either a plain string or a structured object for
// the reasoning field.
func rationaleString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		pretty, err := json.MarshalIndent(obj, "", "  ")
		if err == nil {
			return string(pretty)
		}
	}
	return strings.TrimSpace(string(raw))
}
