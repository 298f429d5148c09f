package reconciliation

import (
	"errors"
	"fmt"
	"strings"

	"petrolhub/backend/internal/domain"
)

var (
	ErrWizardCompleted   = errors.New("shift session already completed")
	ErrInvalidTransition = errors.New("invalid wizard transition")
)

// Event moves a session through the close-out steps.
type Event string

const (
	EventNext    Event = "next"
	EventBack    Event = "back"
	EventConfirm Event = "confirm"

	gotoPrefix = "goto:"
)

var wizardSteps = []domain.WizardStep{
	domain.StepMeters,
	domain.StepShopWash,
	domain.StepCredits,
	domain.StepExpenses,
	domain.StepTenders,
	domain.StepReview,
	domain.StepCompleted,
}

// GotoEvent jumps back to an already visited step.
func GotoEvent(step domain.WizardStep) Event {
	return Event(gotoPrefix + string(step))
}

// ParseEvent accepts next, back, confirm and goto:<step>.
func ParseEvent(raw string) (Event, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch Event(value) {
	case EventNext, EventBack, EventConfirm:
		return Event(value), nil
	}
	if target, ok := strings.CutPrefix(value, gotoPrefix); ok {
		if stepIndex(domain.WizardStep(target)) >= 0 {
			return GotoEvent(domain.WizardStep(target)), nil
		}
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, raw)
}

// NewWizard is the state of a freshly started session.
func NewWizard() domain.WizardState {
	return domain.WizardState{Step: domain.StepMeters, Furthest: domain.StepMeters}
}

// Transition applies event to state. Steps may be revisited freely up to the
// furthest one reached, but never skipped ahead of it. Completion is only
// reachable from review through confirm and is terminal.
func Transition(state domain.WizardState, event Event) (domain.WizardState, error) {
	current := stepIndex(state.Step)
	furthest := stepIndex(state.Furthest)
	if current < 0 || furthest < current {
		return state, fmt.Errorf("%w: corrupt state %s/%s", ErrInvalidTransition, state.Step, state.Furthest)
	}
	if state.Step == domain.StepCompleted {
		return state, ErrWizardCompleted
	}

	switch {
	case event == EventNext:
		if state.Step == domain.StepReview {
			return state, fmt.Errorf("%w: review is left through confirm", ErrInvalidTransition)
		}
		return moveTo(state, current+1), nil
	case event == EventBack:
		if current == 0 {
			return state, fmt.Errorf("%w: already at the first step", ErrInvalidTransition)
		}
		return moveTo(state, current-1), nil
	case event == EventConfirm:
		if state.Step != domain.StepReview {
			return state, fmt.Errorf("%w: confirm is only allowed from review", ErrInvalidTransition)
		}
		return domain.WizardState{Step: domain.StepCompleted, Furthest: domain.StepCompleted}, nil
	case strings.HasPrefix(string(event), gotoPrefix):
		target := stepIndex(domain.WizardStep(strings.TrimPrefix(string(event), gotoPrefix)))
		if target < 0 || wizardSteps[target] == domain.StepCompleted {
			return state, fmt.Errorf("%w: %s", ErrInvalidTransition, event)
		}
		if target > furthest {
			return state, fmt.Errorf("%w: step %s not reached yet", ErrInvalidTransition, wizardSteps[target])
		}
		return moveTo(state, target), nil
	}

	return state, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
}

func moveTo(state domain.WizardState, index int) domain.WizardState {
	next := domain.WizardState{Step: wizardSteps[index], Furthest: state.Furthest}
	if index > stepIndex(state.Furthest) {
		next.Furthest = wizardSteps[index]
	}
	return next
}

func stepIndex(step domain.WizardStep) int {
	for i, candidate := range wizardSteps {
		if candidate == step {
			return i
		}
	}
	return -1
}
