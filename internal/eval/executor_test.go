package eval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareSolution(t *testing.T) {
	code := "def helper(x):\n    return x\n\nprint(helper(1))\ncandidate(2)"
	out := prepareSolution(code, "target")

	assert.Contains(t, out, "def target(x):")
	assert.Contains(t, out, "# print(")
	assert.Contains(t, out, "target(2)")
	assert.NotContains(t, out, "candidate(")
}

func TestPrepareSolution_EntryPointAlreadyCorrect(t *testing.T) {
	code := "def add(a, b):\n    return a + b"
	assert.Equal(t, code, prepareSolution(code, "add"))
}

func TestDriverScript(t *testing.T) {
	t.Run("equality relation calls the entry point", func(t *testing.T) {
		script := driverScript("add", TestCase{Input: "1, 2", Output: "3", Relation: "=="})
		assert.Contains(t, script, "from solution import add")
		assert.Contains(t, script, "print(add(1, 2))")
	})

	t.Run("templated relation substitutes input", func(t *testing.T) {
		script := driverScript("f", TestCase{Input: "7", Relation: "print(f($input$) > 0)"})
		assert.Contains(t, script, "print(f(7) > 0)")
		assert.False(t, strings.Contains(script, "$input$"))
	})

	t.Run("candidate relation is wrapped in print", func(t *testing.T) {
		script := driverScript("add", TestCase{Input: "", Relation: "candidate(1, 2) == 3"})
		assert.Contains(t, script, "print(add(1, 2) == 3)")
	})
}

func TestCaseVerdict(t *testing.T) {
	eq := TestCase{Output: "3", Relation: "=="}
	assert.True(t, caseVerdict(eq, "3\n"))
	assert.False(t, caseVerdict(eq, "4"))

	rel := TestCase{Relation: "candidate(1) == 1"}
	assert.True(t, caseVerdict(rel, "True\n"))
	assert.False(t, caseVerdict(rel, "False"))
	assert.False(t, caseVerdict(rel, ""))
}
