// Package eval runs the clarification pipeline against a benchmark dataset
// of deliberately flawed requirements, executes the generated code against
// each problem's test cases, and aggregates pass rates.
package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TestCase is one input/expected-output pair for a problem. Relation is
// either "==" (compare stdout against Output) or a Python boolean expression
// that judges the result itself.
type TestCase struct {
	Input    looseString `json:"input"`
	Output   looseString `json:"output"`
	Relation string      `json:"relation"`
}

// Problem is one benchmark entry: the original prompt, its modified variants
// keyed by variant name, the canonical entry point, and the test cases.
type Problem struct {
	Name       string
	EntryPoint string
	Prompt     string
	Variants   map[string]string
	TestCases  []TestCase
}

// Requirement returns the text for the given prompt variant. The empty
// variant or "prompt" selects the original prompt. A missing or blank
// variant returns false; such problems are skipped, not failed.
func (p *Problem) Requirement(variant string) (string, bool) {
	if variant == "" || variant == "prompt" {
		return p.Prompt, p.Prompt != ""
	}
	text, ok := p.Variants[variant]
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// rawProblem matches the benchmark JSONL shape; unknown keys starting with
// "prompt" are collected as variants.
type rawProblem struct {
	Name       string     `json:"name"`
	EntryPoint string     `json:"entry_point"`
	TestCases  []TestCase `json:"test_case"`
}

// LoadDataset reads a JSONL benchmark file. Blank lines are skipped;
// a malformed line is an error, not a skip, so a truncated download is
// noticed instead of silently shrinking the benchmark.
func LoadDataset(path string) ([]Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var problems []Problem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw rawProblem
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", lineNo, err)
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &fields); err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", lineNo, err)
		}

		p := Problem{
			Name:       raw.Name,
			EntryPoint: raw.EntryPoint,
			TestCases:  raw.TestCases,
			Variants:   map[string]string{},
		}
		for key, value := range fields {
			if !strings.HasPrefix(key, "prompt") {
				continue
			}
			var text string
			if err := json.Unmarshal(value, &text); err != nil {
				continue
			}
			if key == "prompt" {
				p.Prompt = text
			} else {
				p.Variants[key] = text
			}
		}

		problems = append(problems, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	return problems, nil
}

// looseString accepts a JSON string or any other scalar and renders it as the
// literal text, since some benchmark entries carry inputs as bare numbers or
// lists rather than strings.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	*s = looseString(strings.TrimSpace(string(data)))
	return nil
}

func (s looseString) String() string { return string(s) }
