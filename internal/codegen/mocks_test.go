package codegen

import (
	"context"
	"errors"

	"reqforge/internal/perception"
)

// scriptedClient replays canned responses in order and records every
// conversation it was handed.
type scriptedClient struct {
	responses []string
	err       error
	calls     [][]perception.ChatMessage
}

func (c *scriptedClient) Complete(_ context.Context, messages []perception.ChatMessage, _ perception.CompletionOptions) (string, error) {
	c.calls = append(c.calls, append([]perception.ChatMessage(nil), messages...))
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("scripted client exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func analysisResponse(body string) string {
	return "<ANALYSIS>\n" + body + "\n</ANALYSIS>"
}

func correctionResponse(body string) string {
	return "<CORRECTION>\n" + body + "\n</CORRECTION>"
}

const readyAnalysis = `{
  "decision": "ready",
  "reasoning": "clear",
  "issues": [],
  "normalized_requirement": "def add(a: int, b: int) -> int:\n    Return the sum of a and b.",
  "original_function_signature": "def add(a: int, b: int) -> int:"
}`
