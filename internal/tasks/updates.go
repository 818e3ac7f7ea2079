package tasks

import (
	"fmt"

	"github.com/desertthunder/rivora/internal/models"
	"github.com/desertthunder/rivora/internal/shared"
)

// ProgressUpdate represents a progress event during a submission.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number
	Total   int    // Total steps
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data (the stored item on completion)
}

// Phase enumerates submission phases.
type Phase int

const (
	PhaseValidating Phase = iota
	PhaseSubmitting
	PhaseClassifying
	PhasePersisting
	PhaseDone
	PhaseFailed
)

const submissionSteps = 4

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseClassifying:
		return "classifying"
	case PhasePersisting:
		return "persisting"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validatingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: PhaseValidating, Step: 1, Total: submissionSteps, Message: "Checking prompt..."}
}

func submittingUpdate(t models.MediaType, prompt string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseSubmitting,
		Step:    2,
		Total:   submissionSteps,
		Message: fmt.Sprintf("Generating %s: %s", t, shared.Truncate(prompt, 48)),
	}
}

func classifyingUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: PhaseClassifying, Step: 3, Total: submissionSteps, Message: "Reading response..."}
}

func persistingUpdate(d models.Draft) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhasePersisting,
		Step:    4,
		Total:   submissionSteps,
		Message: fmt.Sprintf("Saving %s to gallery...", d.Type),
	}
}

func doneUpdate(item models.MediaItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseDone,
		Step:    submissionSteps,
		Total:   submissionSteps,
		Message: fmt.Sprintf("✓ Saved %s #%d", item.Type, item.ID),
		Data:    item,
	}
}

func failedUpdate(step int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFailed,
		Step:    step,
		Total:   submissionSteps,
		Message: "✗ " + UserMessage(err),
	}
}
