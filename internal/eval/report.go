package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report aggregates a benchmark run.
type Report struct {
	RunID           string          `json:"run_id"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Variant         string          `json:"prompt_type,omitempty"`
	Total           int             `json:"total_problems"`
	Evaluated       int             `json:"evaluated"`
	Skipped         int             `json:"skipped"`
	Failed          int             `json:"failed"`
	FullyPassed     int             `json:"fully_passed"`
	PassRate        float64         `json:"pass_rate"`
	CasePassRate    float64         `json:"case_pass_rate"`
	RepairHistogram map[int]int     `json:"correction_histogram"`
	Results         []ProblemResult `json:"results"`
}

// BuildReport computes aggregate metrics over per-problem results.
func BuildReport(results []ProblemResult, variant string) *Report {
	rep := &Report{
		RunID:           uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		Variant:         variant,
		Total:           len(results),
		RepairHistogram: map[int]int{},
		Results:         results,
	}

	casesPassed, casesTotal := 0, 0
	for _, res := range results {
		switch {
		case res.Skipped:
			rep.Skipped++
			continue
		case res.Error != "":
			rep.Failed++
		default:
			rep.Evaluated++
		}

		rep.RepairHistogram[res.RepairRounds]++
		if res.FullyPassed {
			rep.FullyPassed++
		}
		casesPassed += res.PassedCases
		casesTotal += res.TotalCases
	}

	attempted := rep.Evaluated + rep.Failed
	if attempted > 0 {
		rep.PassRate = float64(rep.FullyPassed) / float64(attempted)
	}
	if casesTotal > 0 {
		rep.CasePassRate = float64(casesPassed) / float64(casesTotal)
	}
	return rep
}

// WriteJSON persists the full report next to a human-readable summary.
func (r *Report) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("eval_%s.json", r.GeneratedAt.Format("20060102_150405")))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Summary renders the headline numbers as markdown.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString("# Benchmark Report\n\n")
	if r.Variant != "" {
		fmt.Fprintf(&b, "Prompt variant: `%s`\n\n", r.Variant)
	}
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Problems | %d |\n", r.Total)
	fmt.Fprintf(&b, "| Evaluated | %d |\n", r.Evaluated)
	fmt.Fprintf(&b, "| Skipped | %d |\n", r.Skipped)
	fmt.Fprintf(&b, "| Failed runs | %d |\n", r.Failed)
	fmt.Fprintf(&b, "| Fully passed | %d |\n", r.FullyPassed)
	fmt.Fprintf(&b, "| Pass rate | %.1f%% |\n", r.PassRate*100)
	fmt.Fprintf(&b, "| Case pass rate | %.1f%% |\n", r.CasePassRate*100)

	if len(r.RepairHistogram) > 0 {
		b.WriteString("\n## Repair rounds\n\n| Rounds | Problems |\n|---|---|\n")
		rounds := make([]int, 0, len(r.RepairHistogram))
		for k := range r.RepairHistogram {
			rounds = append(rounds, k)
		}
		sort.Ints(rounds)
		for _, k := range rounds {
			fmt.Fprintf(&b, "| %d | %d |\n", k, r.RepairHistogram[k])
		}
	}
	return b.String()
}
