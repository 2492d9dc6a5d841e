package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reqforge/internal/codegen"
	"reqforge/internal/perception"
	"reqforge/internal/ux"
)

var (
	requirementText string
	requirementFile string
	outputPath      string
	maxIterations   int
	prettyOutput    bool
	showStatus      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Clarify a requirement and generate code from it",
	Long: `Runs the full pipeline on a single requirement and writes the result
artifact as JSON: the finalized requirement, the generated code, any
assumptions, and the per-round trace.

Example:
  reqforge generate --requirement-file task.txt --output result.json`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&requirementText, "requirement", "r", "", "requirement text")
	generateCmd.Flags().StringVarP(&requirementFile, "requirement-file", "f", "", "file containing the requirement")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the result artifact to this file instead of stdout")
	generateCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the analysis round budget")
	generateCmd.Flags().BoolVar(&prettyOutput, "pretty", false, "render a human-readable summary instead of raw JSON")
	generateCmd.Flags().BoolVar(&showStatus, "status", false, "show a live pipeline status display")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	requirement, err := resolveRequirement()
	if err != nil {
		return err
	}

	if maxIterations > 0 {
		cfg.Flow.MaxIterations = maxIterations
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := perception.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	var opts []codegen.Option
	if showStatus {
		opts = append(opts, codegen.WithObserver(ux.NewStatusBoard(os.Stderr)))
	}

	pipeline := codegen.New(client, cfg, logger, opts...)
	result, err := pipeline.Run(ctx, requirement)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		fmt.Printf("result written to %s\n", outputPath)
	}

	if prettyOutput {
		fmt.Print(ux.RenderMarkdown(resultMarkdown(result)))
	} else if outputPath == "" {
		fmt.Println(string(data))
	}
	return nil
}

func resolveRequirement() (string, error) {
	switch {
	case requirementText != "" && requirementFile != "":
		return "", fmt.Errorf("--requirement and --requirement-file are mutually exclusive")
	case requirementText != "":
		return requirementText, nil
	case requirementFile != "":
		data, err := os.ReadFile(requirementFile)
		if err != nil {
			return "", fmt.Errorf("failed to read requirement file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("one of --requirement or --requirement-file is required")
	}
}

func resultMarkdown(result *codegen.SynthesisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", result.RunID)
	fmt.Fprintf(&b, "Repair rounds: %d\n\n", result.RepairRounds)

	b.WriteString("## Finalized requirement\n\n")
	b.WriteString(result.FinalizedRequirement)
	b.WriteString("\n\n## Generated code\n\n```python\n")
	b.WriteString(result.Code)
	b.WriteString("\n```\n")

	if len(result.Notes) > 0 {
		b.WriteString("\n## Assumptions\n\n")
		for _, note := range result.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}
	return b.String()
}
