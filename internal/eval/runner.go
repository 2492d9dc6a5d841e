package eval

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reqforge/internal/codegen"
	"reqforge/internal/config"
	"reqforge/internal/perception"
)

// maxGenAttempts bounds the regeneration retries when a run produces code
// that cannot even be executed.
const maxGenAttempts = 3

// ProblemResult is the evaluation outcome for one problem under one prompt
// variant.
type ProblemResult struct {
	Name         string       `json:"name"`
	Variant      string       `json:"prompt_type,omitempty"`
	Code         string       `json:"code"`
	RepairRounds int          `json:"correction_iterations"`
	Cases        []CaseResult `json:"cases"`
	PassedCases  int          `json:"passed_cases"`
	TotalCases   int          `json:"total_cases"`
	FullyPassed  bool         `json:"fully_passed"`
	Skipped      bool         `json:"skipped,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Runner evaluates a dataset: one clarification-and-synthesis run per
// problem, then test-case execution, with a bounded number of problems in
// flight at once.
type Runner struct {
	cfg      *config.Config
	client   perception.LLMClient
	executor CodeExecutor
	logger   *zap.Logger
}

// NewRunner builds a benchmark runner. The client must be safe for
// concurrent use; each problem gets its own pipeline instance.
func NewRunner(cfg *config.Config, client perception.LLMClient, executor CodeExecutor, logger *zap.Logger) *Runner {
	return &Runner{cfg: cfg, client: client, executor: executor, logger: logger}
}

// Run evaluates every problem under the given prompt variant. Per-problem
// failures are recorded in the result, not returned; only context
// cancellation aborts the whole run.
func (r *Runner) Run(ctx context.Context, problems []Problem, variant string) ([]ProblemResult, error) {
	workers := r.cfg.Eval.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]ProblemResult, len(problems))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, problem := range problems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.evaluateProblem(gctx, problem, variant)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) evaluateProblem(ctx context.Context, problem Problem, variant string) ProblemResult {
	res := ProblemResult{Name: problem.Name, Variant: variant}

	requirement, ok := problem.Requirement(variant)
	if !ok {
		r.logger.Debug("variant missing, skipping problem",
			zap.String("problem", problem.Name),
			zap.String("variant", variant))
		res.Skipped = true
		return res
	}

	// Benchmark requirements name the function "candidate"; substitute the
	// canonical entry point so synthesis targets the name the tests import.
	requirement = substituteEntryPoint(requirement, problem.EntryPoint)

	code, repairRounds, err := r.generate(ctx, requirement)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Code = code
	res.RepairRounds = repairRounds

	if code == "" {
		res.Error = "no valid code after all generation attempts"
		return res
	}

	cases, err := r.executor.Run(ctx, code, problem.EntryPoint, problem.TestCases)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Cases = cases
	res.TotalCases = len(cases)
	for _, c := range cases {
		if c.Passed {
			res.PassedCases++
		}
	}
	res.FullyPassed = res.TotalCases > 0 && res.PassedCases == res.TotalCases

	r.logger.Info("problem evaluated",
		zap.String("problem", problem.Name),
		zap.Int("passed", res.PassedCases),
		zap.Int("total", res.TotalCases),
		zap.Int("repair_rounds", repairRounds))
	return res
}

// generate runs the pipeline, retrying when the produced code is unusable.
func (r *Runner) generate(ctx context.Context, requirement string) (string, int, error) {
	for attempt := 1; attempt <= maxGenAttempts; attempt++ {
		pipeline := codegen.New(r.client, r.cfg, r.logger)
		result, err := pipeline.Run(ctx, requirement)
		if err != nil {
			return "", 0, err
		}

		if reason := invalidCodeReason(result.Code); reason != "" {
			r.logger.Warn("generated code rejected",
				zap.Int("attempt", attempt),
				zap.String("reason", reason))
			continue
		}
		return result.Code, result.RepairRounds, nil
	}
	return "", 0, nil
}

// invalidCodeReason reports why code cannot be executed: empty output,
// unparsed role tags that leaked through extraction, a raw JSON blob, or no
// function definition at all. Empty means the code is usable.
func invalidCodeReason(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "empty code"
	}

	lower := strings.ToLower(trimmed)
	for _, tag := range []string{"<analysis>", "</analysis>", "<correction>", "</correction>"} {
		if strings.Contains(lower, tag) {
			return "contains unparsed role tag " + tag
		}
	}

	if strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, `"code"`) {
		return "raw JSON instead of code"
	}
	if !strings.Contains(trimmed, "def ") {
		return "no function definition"
	}
	return ""
}

// substituteEntryPoint rewrites a placeholder-named requirement to use the
// problem's canonical entry point, in both the header and call sites.
func substituteEntryPoint(requirement, entryPoint string) string {
	if entryPoint == "" || !strings.Contains(requirement, "def candidate") {
		return requirement
	}
	requirement = strings.ReplaceAll(requirement, "def candidate(", "def "+entryPoint+"(")
	requirement = strings.ReplaceAll(requirement, "candidate(", entryPoint+"(")
	return requirement
}
