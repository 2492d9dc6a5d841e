package eval

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CaseResult is the outcome of running one test case.
type CaseResult struct {
	Passed bool   `json:"passed"`
	Status string `json:"status"` // stdout on success; "timeout", "exception" or an error line otherwise
}

// CodeExecutor runs generated code against a problem's test cases. The fake
// used in tests and the subprocess runner both satisfy it.
type CodeExecutor interface {
	Run(ctx context.Context, code, entryPoint string, cases []TestCase) ([]CaseResult, error)
}

// PythonExecutor executes cases by writing the solution and a per-case driver
// script to a scratch directory and running them under an interpreter
// subprocess with a per-case timeout.
type PythonExecutor struct {
	Bin         string
	CaseTimeout time.Duration
	logger      *zap.Logger
}

// NewPythonExecutor builds a subprocess executor. bin defaults to python3
// and timeout to ten seconds.
func NewPythonExecutor(bin string, caseTimeout time.Duration, logger *zap.Logger) *PythonExecutor {
	if bin == "" {
		bin = "python3"
	}
	if caseTimeout <= 0 {
		caseTimeout = 10 * time.Second
	}
	return &PythonExecutor{Bin: bin, CaseTimeout: caseTimeout, logger: logger}
}

var defRe = regexp.MustCompile(`(?m)^\s*def\s+(\w+)\s*\(`)

// prepareSolution rewrites the generated code so the driver can import the
// expected entry point: the first defined function is renamed to entryPoint,
// leftover placeholder calls are redirected, and top-level prints are
// silenced so they cannot pollute the compared stdout.
func prepareSolution(code, entryPoint string) string {
	if m := defRe.FindStringSubmatch(code); m != nil && m[1] != entryPoint {
		oldName := m[1]
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
		code = re.ReplaceAllString(code, entryPoint)
	}
	code = strings.ReplaceAll(code, "candidate(", entryPoint+"(")
	code = strings.ReplaceAll(code, "print(", "# print(")
	return code
}

// driverScript builds the Python snippet that imports the solution and
// evaluates one test case.
func driverScript(entryPoint string, tc TestCase) string {
	var body string
	switch {
	case tc.Relation == "==":
		body = fmt.Sprintf("print(%s(%s))\n", entryPoint, tc.Input)
	case strings.Contains(tc.Relation, "$input$") || strings.Contains(tc.Relation, "$demo$"):
		rel := strings.ReplaceAll(tc.Relation, "$input$", tc.Input.String())
		rel = strings.ReplaceAll(rel, "$demo$", "solution")
		body = rel + "\n"
	default:
		rel := strings.ReplaceAll(tc.Relation, "candidate", entryPoint)
		body = fmt.Sprintf("print(%s)\n", rel)
	}
	return fmt.Sprintf("from solution import %s\n%s", entryPoint, body)
}

// caseVerdict decides pass/fail from the driver's stdout: an equality case
// compares against the expected output, a relation case demands the literal
// True.
func caseVerdict(tc TestCase, stdout string) bool {
	got := strings.TrimSpace(stdout)
	if tc.Relation == "==" {
		return got == strings.TrimSpace(tc.Output.String())
	}
	return got == "True"
}

// Run implements CodeExecutor. A per-case failure is recorded in its
// CaseResult; only scratch-directory setup fails the whole run.
func (e *PythonExecutor) Run(ctx context.Context, code, entryPoint string, cases []TestCase) ([]CaseResult, error) {
	dir, err := os.MkdirTemp("", "reqforge-eval-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	solution := prepareSolution(code, entryPoint)
	if err := os.WriteFile(filepath.Join(dir, "solution.py"), []byte(solution), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write solution: %w", err)
	}

	results := make([]CaseResult, 0, len(cases))
	for i, tc := range cases {
		driver := filepath.Join(dir, fmt.Sprintf("case_%d.py", i))
		if err := os.WriteFile(driver, []byte(driverScript(entryPoint, tc)), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write driver: %w", err)
		}

		results = append(results, e.runCase(ctx, dir, driver, tc))
	}
	return results, nil
}

func (e *PythonExecutor) runCase(ctx context.Context, dir, driver string, tc TestCase) CaseResult {
	caseCtx, cancel := context.WithTimeout(ctx, e.CaseTimeout)
	defer cancel()

	cmd := exec.CommandContext(caseCtx, e.Bin, driver)
	cmd.Dir = dir
	out, err := cmd.Output()

	if caseCtx.Err() == context.DeadlineExceeded {
		return CaseResult{Status: "timeout"}
	}
	if err != nil {
		e.logger.Debug("test case subprocess failed", zap.Error(err))
		return CaseResult{Status: fmt.Sprintf("execution error: %v", err)}
	}

	stdout := string(out)
	return CaseResult{
		Passed: caseVerdict(tc, stdout),
		Status: strings.TrimSpace(stdout),
	}
}
