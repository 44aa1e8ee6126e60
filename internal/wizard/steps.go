package wizard

import (
	"errors"
	"fmt"
)

// Step is one wizard page.
type Step int

// Wizard pages in order.
const (
	StepGeneral Step = iota + 1
	StepStandards
	StepSessions
	StepReview
)

const (
	stepGeneralNameConstant   = "general"
	stepStandardsNameConstant = "standards"
	stepSessionsNameConstant  = "sessions"
	stepReviewNameConstant    = "review"
	stepUnknownNameConstant   = "unknown"

	stepIncompleteMessageConstant         = "current step is incomplete"
	submissionInFlightMessageConstant     = "audit submission already in progress"
	notAtReviewMessageConstant            = "audit can only be submitted from the review step"
	invalidTransitionMessageConstant      = "step transition not allowed"
	sessionIndexOutOfRangeMessageConstant = "session index out of range"
	noPendingDeletionMessageConstant      = "no session deletion pending"
	staleSessionEditorMessageConstant     = "session list changed since the editor was opened"
	committerMissingMessageConstant       = "audit committer not configured"
	validationErrorTemplateConstant       = "%s: %s"
)

var (
	// ErrStepIncomplete reports that the gating predicate of a step does not hold.
	ErrStepIncomplete = errors.New(stepIncompleteMessageConstant)
	// ErrSubmissionInFlight reports a second submission while one is running.
	ErrSubmissionInFlight = errors.New(submissionInFlightMessageConstant)
	// ErrNotAtReview reports a submission attempted before the review step.
	ErrNotAtReview = errors.New(notAtReviewMessageConstant)
	// ErrInvalidTransition reports a navigation the wizard does not offer.
	ErrInvalidTransition = errors.New(invalidTransitionMessageConstant)
	// ErrSessionIndexOutOfRange reports a session index outside the draft.
	ErrSessionIndexOutOfRange = errors.New(sessionIndexOutOfRangeMessageConstant)
	// ErrNoPendingDeletion reports a confirmation without a preceding request.
	ErrNoPendingDeletion = errors.New(noPendingDeletionMessageConstant)
	// ErrStaleSessionEditor reports a save from an editor opened before the session list was reshaped.
	ErrStaleSessionEditor = errors.New(staleSessionEditorMessageConstant)

	errCommitterMissing = errors.New(committerMissingMessageConstant)
)

// String returns the lowercase step name.
func (step Step) String() string {
	switch step {
	case StepGeneral:
		return stepGeneralNameConstant
	case StepStandards:
		return stepStandardsNameConstant
	case StepSessions:
		return stepSessionsNameConstant
	case StepReview:
		return stepReviewNameConstant
	default:
		return stepUnknownNameConstant
	}
}

// Valid reports whether step is one of the four wizard pages.
func (step Step) Valid() bool {
	return step >= StepGeneral && step <= StepReview
}

// ValidationError describes a field-level rejection.
type ValidationError struct {
	Field   string
	Message string
}

// Error describes the invalid field.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(validationErrorTemplateConstant, validationError.Field, validationError.Message)
}
