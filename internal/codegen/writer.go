package codegen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"reqforge/internal/extract"
	"reqforge/internal/perception"
	"reqforge/internal/signature"
)

const writerSystemPrompt = `You are the Writer, responsible for generating production-ready Python code from clarified requirements. The requirement you receive has been analyzed and repaired; implement it faithfully with attention to correctness and edge cases.

## OUTPUT FORMAT (CRITICAL)
Output your code inside a markdown code block:

` + "```python" + `
# your complete code here
` + "```" + `

## RULES
1. The function signature in the requirement (parameter types and number of parameters) MUST be preserved exactly.
2. Include ALL necessary imports (from typing import List, Dict, etc.).
3. Handle edge cases (empty input, None, etc.).
4. Verify your code works for ALL provided examples.

Output ONLY the code block, including docstrings.`

// Writer turns a finalized requirement into code, then validates the code's
// signature against the requirement's and auto-repairs type drift. Stateless
// apart from its scratch conversation.
type Writer struct {
	client       perception.LLMClient
	logger       *zap.Logger
	opts         perception.CompletionOptions
	conversation []perception.ChatMessage
}

// NewWriter creates the synthesis role.
func NewWriter(client perception.LLMClient, logger *zap.Logger, opts perception.CompletionOptions) *Writer {
	return &Writer{client: client, logger: logger, opts: opts}
}

func (w *Writer) resetConversation() {
	w.conversation = w.conversation[:0]
	w.conversation = append(w.conversation, perception.ChatMessage{
		Role:    perception.RoleSystem,
		Content: writerSystemPrompt,
	})
}

// Process generates code for the finalized requirement. Total extraction
// failure is a valid outcome: empty code plus a diagnostic note, never an
// error. Only a backend call failure is returned as an error.
func (w *Writer) Process(ctx context.Context, finalizedRequirement, signatureHint string) (string, []string, error) {
	w.resetConversation()

	signatureReminder := ""
	if signatureHint != "" {
		signatureReminder = fmt.Sprintf("\n\nORIGINAL FUNCTION SIGNATURE (MUST PRESERVE EXACTLY):\n%s\n", signatureHint)
	}

	payload := fmt.Sprintf(`Generate Python code for this requirement:

%s%s
Remember: preserve the original function signature from the input, include all imports, output ONLY the code block.`,
		strings.TrimSpace(finalizedRequirement), signatureReminder)

	w.conversation = append(w.conversation, perception.ChatMessage{
		Role:    perception.RoleUser,
		Content: payload,
	})

	response, err := w.client.Complete(ctx, w.conversation, w.opts)
	if err != nil {
		return "", nil, fmt.Errorf("synthesis backend call failed: %w", err)
	}

	res := extract.Code(response)
	if res.Code == "" {
		w.logger.Warn("failed to extract code from synthesis output",
			zap.String("head", head(response, 200)))
		return "", []string{"failed to extract code from the generated response"}, nil
	}

	w.logger.Debug("code extracted", zap.String("method", res.Method))

	code := res.Code
	var notes []string

	reqSig := signature.Extract(finalizedRequirement)
	codeSig := signature.Extract(code)
	if ok, reason := signature.Compare(reqSig, codeSig); !ok {
		w.logger.Warn("generated code drifted from the requirement signature",
			zap.String("reason", reason))
		if fixed, ok := repairSignature(reqSig, codeSig, code); ok {
			code = fixed
			w.logger.Info("signature auto-repaired in generated code")
		} else {
			// Parameter-count drift is irrecoverable; surface it instead.
			notes = append(notes, fmt.Sprintf("unrepaired signature mismatch: %s", reason))
		}
	}

	return code, notes, nil
}

// repairSignature rewrites the function header in code to match the
// requirement's contract: the requirement's name and declared parameter types
// (falling back to the code's own), and the requirement's return type if it
// declares one. Call sites referencing the old name are renamed. Returns
// false when the parameter counts differ, which cannot be repaired.
func repairSignature(reqSig, codeSig *signature.FunctionSignature, code string) (string, bool) {
	if reqSig == nil || codeSig == nil {
		return "", false
	}
	if len(reqSig.Params) != len(codeSig.Params) {
		return "", false
	}

	merged := &signature.FunctionSignature{
		Name:   reqSig.Name,
		Return: reqSig.Return,
	}
	for i := range codeSig.Params {
		ptype := reqSig.Params[i].Type
		if ptype == "" {
			ptype = codeSig.Params[i].Type
		}
		merged.Params = append(merged.Params, signature.Param{
			Name: codeSig.Params[i].Name,
			Type: ptype,
		})
	}

	defRe := regexp.MustCompile(`def\s+` + regexp.QuoteMeta(codeSig.Name) + `\s*\([^)]*\)(\s*->[^:]+)?:`)
	loc := defRe.FindStringIndex(code)
	if loc == nil {
		return "", false
	}
	fixed := code[:loc[0]] + merged.Render() + code[loc[1]:]

	if reqSig.Name != codeSig.Name && reqSig.Name != signature.PlaceholderName {
		callRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(codeSig.Name) + `\s*\(`)
		fixed = callRe.ReplaceAllString(fixed, reqSig.Name+"(")
	}

	return fixed, true
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
