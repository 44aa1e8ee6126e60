package saga

import "fmt"

// Step identifies one write of an audit creation.
type Step string

// Steps in execution order.
const (
	StepResolveOrganization    Step = "resolve_organization"
	StepInsertAudit            Step = "insert_audit"
	StepInsertStandardLinks    Step = "insert_standard_links"
	StepInsertSession          Step = "insert_session"
	StepInsertSessionItemLinks Step = "insert_session_item_links"
	StepUpdateAuditTotalItems  Step = "update_audit_total_items"
)

const (
	preconditionErrorTemplateConstant        = "unable to resolve organization: %v"
	writeErrorTemplateConstant               = "audit creation step %s failed: %v"
	writeErrorSessionTemplateConstant        = "audit creation step %s failed for session %d: %v"
	compensatedSuffixConstant                = " (committed steps rolled back)"
	compensationFailedSuffixTemplateConstant = " (rollback incomplete: %v)"
)

// StepEvent describes one step for observers. SessionIndex is -1 for audit-level steps.
type StepEvent struct {
	Step         Step
	SessionIndex int
	AuditID      string
	RecordCount  int
}

// EventObserver receives step lifecycle notifications.
type EventObserver interface {
	StepStarted(event StepEvent)
	StepCompleted(event StepEvent)
	StepFailed(event StepEvent, failure error)
}

// Result describes a committed audit.
type Result struct {
	AuditID        string
	OrganizationID string
	SessionIDs     []string
	TotalItems     int
}

// PreconditionError reports a failed organization lookup. Nothing was written.
type PreconditionError struct {
	Err error
}

// Error describes the precondition failure.
func (preconditionError PreconditionError) Error() string {
	return fmt.Sprintf(preconditionErrorTemplateConstant, preconditionError.Err)
}

// Unwrap exposes the underlying cause.
func (preconditionError PreconditionError) Unwrap() error {
	return preconditionError.Err
}

// WriteError reports the write that aborted a creation. Earlier writes stay
// committed unless Compensated is true.
type WriteError struct {
	Step              Step
	SessionIndex      int
	AuditID           string
	Err               error
	Compensated       bool
	CompensationError error
}

// Error describes the failed step.
func (writeError WriteError) Error() string {
	var message string
	if writeError.SessionIndex >= 0 {
		message = fmt.Sprintf(writeErrorSessionTemplateConstant, writeError.Step, writeError.SessionIndex+1, writeError.Err)
	} else {
		message = fmt.Sprintf(writeErrorTemplateConstant, writeError.Step, writeError.Err)
	}
	switch {
	case writeError.CompensationError != nil:
		message += fmt.Sprintf(compensationFailedSuffixTemplateConstant, writeError.CompensationError)
	case writeError.Compensated:
		message += compensatedSuffixConstant
	}
	return message
}

// Unwrap exposes the underlying cause.
func (writeError WriteError) Unwrap() error {
	return writeError.Err
}

type noopObserver struct{}

func (noopObserver) StepStarted(StepEvent)       {}
func (noopObserver) StepCompleted(StepEvent)     {}
func (noopObserver) StepFailed(StepEvent, error) {}
