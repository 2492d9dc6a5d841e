package codegen

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reqforge/internal/config"
	"reqforge/internal/perception"
)

// Orchestrator runs the clarification pipeline: analyze the requirement,
// repair it while issues remain and the round budget allows, then synthesize
// code from whatever text the loop settled on. One Orchestrator handles one
// run at a time; it keeps no state between runs.
type Orchestrator struct {
	analyzer  *Analyzer
	corrector *Corrector
	writer    *Writer

	maxIterations int
	logger        *zap.Logger
	observer      StatusObserver
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver attaches a progress observer. Nil observers are ignored.
func WithObserver(obs StatusObserver) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// New builds an orchestrator with all three roles sharing the same backend
// client and generation parameters.
func New(client perception.LLMClient, cfg *config.Config, logger *zap.Logger, opts ...Option) *Orchestrator {
	copts := perception.CompletionOptions{
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	}

	maxIter := cfg.Flow.MaxIterations
	if maxIter <= 0 {
		maxIter = 5
	}

	o := &Orchestrator{
		analyzer:      NewAnalyzer(client, logger, copts),
		corrector:     NewCorrector(client, logger, copts),
		writer:        NewWriter(client, logger, copts),
		maxIterations: maxIter,
		logger:        logger,
		observer:      NopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run drives a full clarification and synthesis pass over the requirement.
// The loop runs at most maxIterations analysis rounds; if the budget runs out
// before a ready verdict, synthesis proceeds on the latest requirement text
// anyway. An error is returned only when a backend call fails.
func (o *Orchestrator) Run(ctx context.Context, requirement string) (*SynthesisResult, error) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))

	current := requirement
	signatureHint := ""
	var trace []RoundRecord
	repairRounds := 0
	ready := false

	o.observer.SetRequirementPreview(current)

	for round := 1; round <= o.maxIterations; round++ {
		o.observer.Update(StageAnalyzing, round, "analyzing requirement", 0)
		log.Info("analysis round", zap.Int("round", round))

		analysis, err := o.analyzer.Process(ctx, current, trace)
		if err != nil {
			return nil, err
		}

		// The signature is locked to whatever the first analysis round
		// reported; later rounds may not move it.
		if signatureHint == "" {
			signatureHint = analysis.SignatureHint
		}

		record := RoundRecord{
			Round:                 round,
			Decision:              analysis.Decision,
			Issues:                analysis.Issues,
			NormalizedRequirement: analysis.NormalizedRequirement,
			RawPayload:            analysis.RawPayload,
			SignatureHint:         analysis.SignatureHint,
		}

		if analysis.Decision == DecisionReady {
			trace = append(trace, record)
			current = analysis.NormalizedRequirement
			ready = true
			log.Info("requirement ready", zap.Int("round", round))
			break
		}

		o.observer.Update(StageRepairing, round, "repairing requirement", len(analysis.Issues))
		log.Info("repairing requirement",
			zap.Int("round", round),
			zap.Int("issues", len(analysis.Issues)))

		repair, err := o.corrector.Process(ctx, current, analysis.Issues, signatureHint)
		if err != nil {
			return nil, err
		}

		record.Repair = &RepairRecord{
			AppliedFixes:  repair.AppliedFixes,
			OpenQuestions: repair.OpenQuestions,
			RawPayload:    repair.RawPayload,
			SignatureHint: repair.SignatureHint,
		}
		trace = append(trace, record)

		current = repair.RevisedRequirement
		repairRounds++
		o.observer.SetRequirementPreview(current)
	}

	if !ready {
		log.Warn("iteration budget exhausted without a ready verdict, synthesizing anyway",
			zap.Int("rounds", o.maxIterations))
	}

	o.observer.Update(StageSynthesizing, repairRounds, "generating code", 0)
	code, notes, err := o.writer.Process(ctx, current, signatureHint)
	if err != nil {
		return nil, err
	}

	o.observer.Update(StageDone, repairRounds, "done", 0)
	log.Info("run complete",
		zap.Int("repair_rounds", repairRounds),
		zap.Bool("code_extracted", code != ""))

	return &SynthesisResult{
		RunID:                runID,
		FinalizedRequirement: current,
		Code:                 code,
		Notes:                notes,
		Trace:                trace,
		RepairRounds:         repairRounds,
	}, nil
}
