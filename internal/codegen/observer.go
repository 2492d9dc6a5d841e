package codegen

// Stage names the pipeline phase currently running.
type Stage string

const (
	StageAnalyzing    Stage = "analyzing"
	StageRepairing    Stage = "repairing"
	StageSynthesizing Stage = "synthesizing"
	StageDone         Stage = "done"
)

// StatusObserver receives progress callbacks from the orchestrator. Implement
// it to drive a terminal display; the orchestrator never depends on what the
// observer does with the updates.
type StatusObserver interface {
	Update(stage Stage, round int, message string, issueCount int)
	SetRequirementPreview(requirement string)
}

// NopObserver is the default observer; it discards all updates.
type NopObserver struct{}

func (NopObserver) Update(Stage, int, string, int) {}
func (NopObserver) SetRequirementPreview(string)   {}
