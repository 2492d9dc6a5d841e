package codegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reqforge/internal/extract"
	"reqforge/internal/perception"
	"reqforge/internal/signature"
)

const correctorOutputTag = "CORRECTION"

const correctorSystemPrompt = `You are the Corrector. Resolve issues to make requirements implementation-ready.

## GOLDEN RULES
1. NEVER change the function signature (number of parameters, param types).
2. DERIVE clarifications from the EXAMPLES, not from assumptions.

## STRATEGIES
- ambiguity: trust order is Function Signature > Examples > Description. Test each interpretation against ALL examples and keep the one that matches all of them. Replace the ambiguous phrase with a concrete rule.
- inconsistency: the function name and return type are the truth source; keep whichever of description or example aligns with them and discard the contradiction.
- incompleteness: infer from the signature, parameter types, example patterns, or description. Use common conventions (empty -> [], None -> error) and reasonable assumptions.

## OUTPUT FORMAT
<CORRECTION>
{
  "improved_requirement": "complete requirement with ALL issues resolved and the function signature preserved",
  "applied_fixes": ["resolved X to Y based on examples"],
  "open_questions": [],
  "original_function_signature": "copy the EXACT function signature from the input"
}
</CORRECTION>

After your correction the requirement must be READY for code generation: complete, unambiguous, and consistent with all examples.`

// Corrector rewrites a requirement to resolve the detected issues, reverting
// the whole rewrite when it would alter the function contract. Stateless
// across invocations apart from its scratch conversation.
type Corrector struct {
	client       perception.LLMClient
	logger       *zap.Logger
	opts         perception.CompletionOptions
	conversation []perception.ChatMessage
}

// NewCorrector creates the repair role.
func NewCorrector(client perception.LLMClient, logger *zap.Logger, opts perception.CompletionOptions) *Corrector {
	return &Corrector{client: client, logger: logger, opts: opts}
}

func (c *Corrector) resetConversation() {
	c.conversation = c.conversation[:0]
	c.conversation = append(c.conversation, perception.ChatMessage{
		Role:    perception.RoleSystem,
		Content: correctorSystemPrompt,
	})
}

// Process produces a revised requirement for the given issue list. The
// revision is validated against the input requirement's signature; any
// contract drift discards the entire repair. Only a backend call failure is
// returned as an error.
func (c *Corrector) Process(ctx context.Context, requirement string, issues []RequirementIssue, signatureHint string) (RepairResult, error) {
	c.resetConversation()

	issuesJSON, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		issuesJSON = []byte("[]")
	}

	var payload strings.Builder
	payload.WriteString("<CURRENT_REQUIREMENT>\n")
	payload.WriteString(strings.TrimSpace(requirement))
	payload.WriteString("\n</CURRENT_REQUIREMENT>\n\n")
	payload.WriteString("<ORIGINAL_FUNCTION_SIGNATURE>\n")
	payload.WriteString(signatureHint)
	payload.WriteString("\n</ORIGINAL_FUNCTION_SIGNATURE>\n\n")
	fmt.Fprintf(&payload, "Issues identified by the Analyzer:\n%s\n", issuesJSON)

	c.conversation = append(c.conversation, perception.ChatMessage{
		Role:    perception.RoleUser,
		Content: payload.String(),
	})

	response, err := c.client.Complete(ctx, c.conversation, c.opts)
	if err != nil {
		return RepairResult{}, fmt.Errorf("repair backend call failed: %w", err)
	}

	return c.parseResponse(response, requirement), nil
}

type correctionPayload struct {
	ImprovedRequirement string   `json:"improved_requirement"`
	AppliedFixes        []string `json:"applied_fixes"`
	OpenQuestions       []string `json:"open_questions"`
	Signature           string   `json:"original_function_signature"`
}

func (c *Corrector) parseResponse(response, fallbackRequirement string) RepairResult {
	blob := extract.TaggedJSON(response, correctorOutputTag)

	var data correctionPayload
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		c.logger.Warn("failed to parse repair output, keeping original requirement", zap.Error(err))
		return RepairResult{
			RevisedRequirement: fallbackRequirement,
			AppliedFixes:       []string{"failed to parse repair output; returning original requirement"},
			RawPayload:         blob,
		}
	}

	revised := strings.TrimSpace(data.ImprovedRequirement)
	if revised == "" {
		revised = fallbackRequirement
	}

	origSig := signature.Extract(fallbackRequirement)
	revSig := signature.Extract(revised)
	if ok, reason := signature.Compare(origSig, revSig); !ok {
		c.logger.Warn("repair rejected: signature drift", zap.String("reason", reason))
		return RepairResult{
			RevisedRequirement: fallbackRequirement,
			AppliedFixes:       []string{fmt.Sprintf("signature validation failed: %s; reverted to original", reason)},
			RawPayload:         blob,
		}
	}

	return RepairResult{
		RevisedRequirement: revised,
		AppliedFixes:       dropEmpty(data.AppliedFixes),
		OpenQuestions:      dropEmpty(data.OpenQuestions),
		RawPayload:         blob,
		SignatureHint:      strings.TrimSpace(data.Signature),
	}
}

func dropEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
