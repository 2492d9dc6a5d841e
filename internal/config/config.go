// Package config holds all reqforge configuration: generation backend
// selection, the requirement clarification loop budget, and the evaluation
// harness settings. Configuration is resolved once at startup from a YAML
// file plus environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all reqforge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Generation backend
	LLM LLMConfig `yaml:"llm"`

	// Clarification loop
	Flow FlowConfig `yaml:"requirement_flow"`

	// Benchmark evaluation
	Eval EvalConfig `yaml:"eval"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // deepseek, gemini, openai
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	Temperature       float64 `yaml:"temperature"`
	MaxOutputTokens   int     `yaml:"max_output_tokens"`
	Timeout           string  `yaml:"timeout"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

// FlowConfig configures the analyze/repair loop.
type FlowConfig struct {
	// MaxIterations bounds the number of analysis rounds per run.
	MaxIterations int `yaml:"max_iterations"`
}

// EvalConfig configures the benchmark evaluation harness.
type EvalConfig struct {
	DatasetPath string `yaml:"dataset_path"`
	OutputDir   string `yaml:"output_dir"`
	Workers     int    `yaml:"workers"`
	PythonBin   string `yaml:"python_bin"`
	CaseTimeout string `yaml:"case_timeout"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "reqforge",
		Version: "0.1.0",
		LLM: LLMConfig{
			Provider:          "deepseek",
			Model:             "deepseek-chat",
			BaseURL:           "https://api.siliconflow.cn/v1",
			Temperature:       0.1,
			MaxOutputTokens:   4096,
			Timeout:           "120s",
			RequestsPerMinute: 60,
		},
		Flow: FlowConfig{
			MaxIterations: 5,
		},
		Eval: EvalConfig{
			DatasetPath: "benchmark/HumanEvalComm.jsonl",
			OutputDir:   "eval_results",
			Workers:     4,
			PythonBin:   "python3",
			CaseTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, fills in defaults for missing
// fields, and applies environment overrides. A missing file is not an error:
// defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.fillDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// fillDefaults restores defaults for fields the YAML left zero-valued.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = def.LLM.BaseURL
	}
	if c.LLM.MaxOutputTokens == 0 {
		c.LLM.MaxOutputTokens = def.LLM.MaxOutputTokens
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = def.LLM.Timeout
	}
	if c.LLM.RequestsPerMinute == 0 {
		c.LLM.RequestsPerMinute = def.LLM.RequestsPerMinute
	}
	if c.Flow.MaxIterations == 0 {
		c.Flow.MaxIterations = def.Flow.MaxIterations
	}
	if c.Eval.DatasetPath == "" {
		c.Eval.DatasetPath = def.Eval.DatasetPath
	}
	if c.Eval.OutputDir == "" {
		c.Eval.OutputDir = def.Eval.OutputDir
	}
	if c.Eval.Workers == 0 {
		c.Eval.Workers = def.Eval.Workers
	}
	if c.Eval.PythonBin == "" {
		c.Eval.PythonBin = def.Eval.PythonBin
	}
	if c.Eval.CaseTimeout == "" {
		c.Eval.CaseTimeout = def.Eval.CaseTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides applies API keys from environment variables. The provider
// follows the highest-priority key present: GEMINI > OPENAI > DEEPSEEK.
// DEEPSEEK_API_KEY only fills the provider when the file left it empty, since
// deepseek is already the default.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "deepseek"
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
}

// GetTimeout parses the backend request timeout, falling back to 120s.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// GetCaseTimeout parses the per-test-case execution timeout, falling back
// to 10s.
func (c *Config) GetCaseTimeout() time.Duration {
	d, err := time.ParseDuration(c.Eval.CaseTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
