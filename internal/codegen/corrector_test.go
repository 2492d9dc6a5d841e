package codegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reqforge/internal/perception"
)

func newTestCorrector(client perception.LLMClient) *Corrector {
	return NewCorrector(client, zap.NewNop(), perception.CompletionOptions{})
}

func TestCorrector_AcceptsValidRevision(t *testing.T) {
	original := "def scale(values: List[int], factor: int) -> List[int]:\n    Scale values by some factor."
	body := `{
	  "improved_requirement": "def scale(values: List[int], factor: int) -> List[int]:\n    Multiply every element of values by factor and return the new list.",
	  "applied_fixes": ["replaced 'some factor' with the factor parameter"],
	  "open_questions": [],
	  "original_function_signature": "def scale(values: List[int], factor: int) -> List[int]:"
	}`
	client := &scriptedClient{responses: []string{correctionResponse(body)}}
	c := newTestCorrector(client)

	issues := []RequirementIssue{{Category: CategoryAmbiguity, Description: "some factor is vague", Severity: SeverityMedium}}
	res, err := c.Process(context.Background(), original, issues, "def scale(values: List[int], factor: int) -> List[int]:")
	require.NoError(t, err)

	assert.Contains(t, res.RevisedRequirement, "Multiply every element")
	assert.Len(t, res.AppliedFixes, 1)
	assert.Empty(t, res.OpenQuestions)
}

func TestCorrector_RevertsOnParamCountDrift(t *testing.T) {
	original := "def add(a: int, b: int) -> int:\n    Add the numbers."
	body := `{
	  "improved_requirement": "def add(a: int, b: int, c: int) -> int:\n    Add the three numbers.",
	  "applied_fixes": ["added a third operand"],
	  "open_questions": []
	}`
	client := &scriptedClient{responses: []string{correctionResponse(body)}}
	c := newTestCorrector(client)

	res, err := c.Process(context.Background(), original, nil, "")
	require.NoError(t, err)

	assert.Equal(t, original, res.RevisedRequirement, "contract drift must revert the whole repair")
	require.Len(t, res.AppliedFixes, 1)
	assert.Contains(t, res.AppliedFixes[0], "signature validation failed")
	assert.Contains(t, res.AppliedFixes[0], "reverted to original")
}

func TestCorrector_RevertsOnTypeDrift(t *testing.T) {
	original := "def add(a: int, b: int) -> int:\n    Add the numbers."
	body := `{
	  "improved_requirement": "def add(a: float, b: float) -> float:\n    Add the numbers.",
	  "applied_fixes": ["switched to float"],
	  "open_questions": []
	}`
	client := &scriptedClient{responses: []string{correctionResponse(body)}}
	c := newTestCorrector(client)

	res, err := c.Process(context.Background(), original, nil, "")
	require.NoError(t, err)
	assert.Equal(t, original, res.RevisedRequirement)
}

func TestCorrector_PlaceholderRenameAllowed(t *testing.T) {
	original := "def candidate(nums: List[int]) -> int:\n    Return something about nums."
	body := `{
	  "improved_requirement": "def max_value(nums: List[int]) -> int:\n    Return the largest element of nums.",
	  "applied_fixes": ["named the function after its behavior"],
	  "open_questions": []
	}`
	client := &scriptedClient{responses: []string{correctionResponse(body)}}
	c := newTestCorrector(client)

	res, err := c.Process(context.Background(), original, nil, "")
	require.NoError(t, err)
	assert.Contains(t, res.RevisedRequirement, "def max_value", "renaming the placeholder is not drift")
}

func TestCorrector_MalformedOutputKeepsOriginal(t *testing.T) {
	client := &scriptedClient{responses: []string{"no tags, no json"}}
	c := newTestCorrector(client)

	res, err := c.Process(context.Background(), "keep me", nil, "")
	require.NoError(t, err)

	assert.Equal(t, "keep me", res.RevisedRequirement)
	require.Len(t, res.AppliedFixes, 1)
	assert.Contains(t, res.AppliedFixes[0], "failed to parse")
}

func TestCorrector_EmptyRevisionKeepsOriginal(t *testing.T) {
	body := `{"improved_requirement": "   ", "applied_fixes": [], "open_questions": []}`
	client := &scriptedClient{responses: []string{correctionResponse(body)}}
	c := newTestCorrector(client)

	res, err := c.Process(context.Background(), "keep me", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "keep me", res.RevisedRequirement)
}
