package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reqforge/internal/eval"
	"reqforge/internal/perception"
	"reqforge/internal/ux"
)

var (
	datasetPath string
	variant     string
	outputDir   string
	evalWorkers int
	maxProblems int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the pipeline against a benchmark dataset",
	Long: `Evaluates the pipeline on a JSONL benchmark: each problem's
requirement is clarified, code is generated, and the code is executed against
the problem's test cases. Writes a JSON report and prints a summary.

Example:
  reqforge eval --dataset benchmark/HumanEvalComm.jsonl --variant prompt1a`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&datasetPath, "dataset", "", "benchmark JSONL file (defaults to the configured path)")
	evalCmd.Flags().StringVar(&variant, "variant", "", "prompt variant to evaluate (empty for the original prompt)")
	evalCmd.Flags().StringVar(&outputDir, "output-dir", "", "report directory (defaults to the configured path)")
	evalCmd.Flags().IntVar(&evalWorkers, "workers", 0, "override the number of problems evaluated in parallel")
	evalCmd.Flags().IntVar(&maxProblems, "max-problems", 0, "evaluate at most this many problems (0 for all)")
}

func runEval(cmd *cobra.Command, args []string) error {
	if datasetPath == "" {
		datasetPath = cfg.Eval.DatasetPath
	}
	if outputDir == "" {
		outputDir = cfg.Eval.OutputDir
	}
	if evalWorkers > 0 {
		cfg.Eval.Workers = evalWorkers
	}

	problems, err := eval.LoadDataset(datasetPath)
	if err != nil {
		return err
	}
	if maxProblems > 0 && len(problems) > maxProblems {
		problems = problems[:maxProblems]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := perception.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	executor := eval.NewPythonExecutor(cfg.Eval.PythonBin, cfg.GetCaseTimeout(), logger)
	runner := eval.NewRunner(cfg, client, executor, logger)

	results, err := runner.Run(ctx, problems, variant)
	if err != nil {
		return err
	}

	report := eval.BuildReport(results, variant)
	path, err := report.WriteJSON(outputDir)
	if err != nil {
		return err
	}

	fmt.Print(ux.RenderMarkdown(report.Summary()))
	fmt.Printf("full report: %s\n", path)
	return nil
}
