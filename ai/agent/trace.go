package agent

import "log/slog"

// Phase names one stage of the orchestration audit trail.
type Phase string

const (
	PhasePlan            Phase = "plan"
	PhaseMemoryRetrieval Phase = "memory-retrieval"
	PhaseToolCall        Phase = "tool-call"
	PhaseObserve         Phase = "observe"
	PhaseReflect         Phase = "reflect"
	PhaseThought         Phase = "thought"
	PhaseAction          Phase = "action"
	PhaseObservation     Phase = "observation"
	PhaseFinalAnswer     Phase = "final-answer"
)

// Step is one trace entry. Step numbers start at 1 and follow append order.
type Step struct {
	Step   int            `json:"step"`
	Phase  Phase          `json:"phase"`
	Detail map[string]any `json:"detail"`
}

// Trace is the append-only audit record of one orchestration run. It is
// returned to the caller and never persisted.
type Trace struct {
	steps []Step
}

// Append records a step and logs it.
func (t *Trace) Append(phase Phase, detail map[string]any) {
	step := Step{
		Step:   len(t.steps) + 1,
		Phase:  phase,
		Detail: detail,
	}
	t.steps = append(t.steps, step)
	slog.Info("agent trace", "step", step.Step, "phase", phase, "detail", detail)
}

// Steps returns the recorded steps in order.
func (t *Trace) Steps() []Step {
	return t.steps
}
