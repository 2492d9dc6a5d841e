package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestLoadDataset(t *testing.T) {
	path := writeDataset(t, `{"name": "HumanEval/0", "entry_point": "add", "prompt": "def add(a: int, b: int) -> int:\n    Add.", "prompt1a": "def candidate(a, b):\n    Do something.", "test_case": [{"input": "1, 2", "output": "3", "relation": "=="}]}

{"name": "HumanEval/1", "entry_point": "neg", "prompt": "def neg(x: int) -> int:", "test_case": [{"input": 5, "output": -5, "relation": "=="}]}
`)

	problems, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, problems, 2, "blank lines are skipped")

	p := problems[0]
	assert.Equal(t, "HumanEval/0", p.Name)
	assert.Equal(t, "add", p.EntryPoint)
	require.Len(t, p.TestCases, 1)
	assert.Equal(t, "1, 2", p.TestCases[0].Input.String())
	assert.Equal(t, "==", p.TestCases[0].Relation)

	// Non-string scalars are preserved as literal text.
	assert.Equal(t, "5", problems[1].TestCases[0].Input.String())
	assert.Equal(t, "-5", problems[1].TestCases[0].Output.String())
}

func TestLoadDataset_MalformedLine(t *testing.T) {
	path := writeDataset(t, "{\"name\": \"ok\"}\nnot json\n")
	_, err := LoadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestProblem_Requirement(t *testing.T) {
	p := Problem{
		Prompt:   "original",
		Variants: map[string]string{"prompt1a": "ambiguous version", "prompt1c": "   "},
	}

	text, ok := p.Requirement("")
	assert.True(t, ok)
	assert.Equal(t, "original", text)

	text, ok = p.Requirement("prompt")
	assert.True(t, ok)
	assert.Equal(t, "original", text)

	text, ok = p.Requirement("prompt1a")
	assert.True(t, ok)
	assert.Equal(t, "ambiguous version", text)

	_, ok = p.Requirement("prompt1c")
	assert.False(t, ok, "blank variants are treated as missing")

	_, ok = p.Requirement("prompt2cp")
	assert.False(t, ok)
}
